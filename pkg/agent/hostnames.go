package agent

import (
	"sync"

	"github.com/NeuralTrust/TrustShield/pkg/common"
	"github.com/NeuralTrust/TrustShield/pkg/types"
)

type hostKey struct {
	hostname string
	port     uint32
}

// Hostnames is an insertion-ordered set of outbound hosts. When full the
// oldest entry is evicted.
type Hostnames struct {
	mu    sync.Mutex
	max   int
	order []hostKey
	seen  map[hostKey]struct{}
}

func NewHostnames(max int) *Hostnames {
	if max <= 0 {
		max = common.MaxHostnames
	}
	return &Hostnames{
		max:  max,
		seen: make(map[hostKey]struct{}),
	}
}

func (h *Hostnames) Add(hostname string, port uint32) {
	if hostname == "" {
		return
	}
	key := hostKey{hostname: hostname, port: port}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.seen[key]; ok {
		return
	}
	if len(h.order) >= h.max {
		oldest := h.order[0]
		h.order = h.order[1:]
		delete(h.seen, oldest)
	}
	h.order = append(h.order, key)
	h.seen[key] = struct{}{}
}

// AsArray returns a copy; mutating it does not affect the set.
func (h *Hostnames) AsArray() []types.Hostname {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]types.Hostname, 0, len(h.order))
	for _, k := range h.order {
		out = append(out, types.Hostname{Hostname: k.hostname, Port: k.port})
	}
	return out
}

func (h *Hostnames) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.order)
}

func (h *Hostnames) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.order = nil
	h.seen = make(map[hostKey]struct{})
}
