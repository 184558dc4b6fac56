package response

import "github.com/NeuralTrust/TrustShield/pkg/types"

type AgentOutput struct {
	ID       string               `json:"id"`
	Blocking bool                 `json:"blocking"`
	Started  bool                 `json:"started"`
	Info     types.AgentInfo      `json:"info"`
	Stats    types.HeartbeatStats `json:"stats"`
}

type HostnamesOutput struct {
	Hostnames []types.Hostname `json:"hostnames"`
	Count     int              `json:"count"`
}

type HeartbeatOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
