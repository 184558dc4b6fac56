package agent

import (
	"sync"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/types"
)

type stats struct {
	mu        sync.Mutex
	startedAt time.Time
	sinks     map[string]*types.SinkStats
	requests  types.RequestStats
}

func newStats(now time.Time) *stats {
	return &stats{
		startedAt: now,
		sinks:     make(map[string]*types.SinkStats),
	}
}

func (s *stats) reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startedAt = now
	s.sinks = make(map[string]*types.SinkStats)
	s.requests = types.RequestStats{}
}

func (s *stats) sink(module string) *types.SinkStats {
	st, ok := s.sinks[module]
	if !ok {
		st = &types.SinkStats{}
		s.sinks[module] = st
	}
	return st
}

func (s *stats) onInspectedCall(module string, withoutContext, blocked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sink(module)
	st.Total++
	if withoutContext {
		st.WithoutContext++
	}
	if blocked {
		st.Blocked++
	} else {
		st.Allowed++
	}
}

func (s *stats) onInterceptorError(module string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink(module).InterceptorThrewError++
}

func (s *stats) onDetectedAttack(module string, blocked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sink(module)
	st.AttacksDetected.Total++
	s.requests.AttacksDetected.Total++
	if blocked {
		st.AttacksDetected.Blocked++
		s.requests.AttacksDetected.Blocked++
	}
}

func (s *stats) onRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests.Total++
}

func (s *stats) snapshot(now time.Time) types.HeartbeatStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	sinks := make(map[string]types.SinkStats, len(s.sinks))
	for module, st := range s.sinks {
		sinks[module] = *st
	}
	return types.HeartbeatStats{
		StartedAt: s.startedAt.UnixMilli(),
		EndedAt:   now.UnixMilli(),
		Sinks:     sinks,
		Requests:  s.requests,
	}
}
