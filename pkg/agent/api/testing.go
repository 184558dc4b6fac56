package api

import (
	"context"
	"errors"
	"sync"

	"github.com/NeuralTrust/TrustShield/pkg/types"
)

// ForTesting records every reported event in memory.
type ForTesting struct {
	mu     sync.Mutex
	result ReportingResult
	events []types.Event
}

func NewForTesting() *ForTesting {
	return &ForTesting{result: Succeeded()}
}

func (f *ForTesting) SetResult(result ReportingResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = result
}

func (f *ForTesting) Report(_ context.Context, _ Token, event types.Event) (ReportingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.result, nil
}

func (f *ForTesting) Events() []types.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Event, len(f.events))
	copy(out, f.events)
	return out
}

// Attacks returns only the detected_attack events.
func (f *ForTesting) Attacks() []*types.DetectedAttackEvent {
	var attacks []*types.DetectedAttackEvent
	for _, evt := range f.Events() {
		if a, ok := evt.(*types.DetectedAttackEvent); ok {
			attacks = append(attacks, a)
		}
	}
	return attacks
}

func (f *ForTesting) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

var ErrReportFailed = errors.New("failed to report event")

// ThatThrows fails every report.
type ThatThrows struct{}

func (ThatThrows) Report(context.Context, Token, types.Event) (ReportingResult, error) {
	return ReportingResult{}, ErrReportFailed
}
