package types

import (
	"errors"
	"fmt"
)

type AttackKind string

const (
	KindSQLInjection   AttackKind = "sql_injection"
	KindNoSQLInjection AttackKind = "nosql_injection"
	KindShellInjection AttackKind = "shell_injection"
	KindSSRF           AttackKind = "ssrf"
)

func (k AttackKind) FriendlyName() string {
	switch k {
	case KindSQLInjection:
		return "SQL injection"
	case KindNoSQLInjection:
		return "NoSQL injection"
	case KindShellInjection:
		return "shell injection"
	case KindSSRF:
		return "server-side request forgery"
	default:
		return string(k)
	}
}

// Attack describes a single detection raised by a sink inspector.
type Attack struct {
	Module    string            `json:"module"`
	Operation string            `json:"operation"`
	Kind      AttackKind        `json:"kind"`
	Blocked   bool              `json:"blocked"`
	Source    Source            `json:"source"`
	Path      string            `json:"path"`
	Stack     string            `json:"stack"`
	Payload   string            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Request   *Context          `json:"-"`
}

// ErrBlocked matches every BlockedError with errors.Is.
var ErrBlocked = errors.New("call blocked")

// BlockedError aborts a sink call before the underlying operation runs.
type BlockedError struct {
	Kind    AttackKind
	Module  string
	Payload string
	Source  Source
}

func NewBlockedError(attack Attack) *BlockedError {
	return &BlockedError{
		Kind:    attack.Kind,
		Module:  attack.Module,
		Payload: attack.Payload,
		Source:  attack.Source,
	}
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf(
		"TrustShield has blocked a %s: %s originating from %s",
		e.Kind.FriendlyName(),
		e.Payload,
		e.Source.FriendlyName(),
	)
}

func (e *BlockedError) Is(target error) bool {
	return target == ErrBlocked
}

// IsBlocked reports whether err carries a blocking signal.
func IsBlocked(err error) bool {
	return errors.Is(err, ErrBlocked)
}
