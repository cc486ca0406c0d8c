package monitoring

import (
	"go.uber.org/atomic"

	"github.com/sarchlab/csim/mem/cache"
	"github.com/sarchlab/csim/sim/hooking"
)

// StatsSnapshot is a consistent-enough copy of the live counters of a cache.
type StatsSnapshot struct {
	Cache     string
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Clock     uint64
	HitRate   float64
}

// A StatsHook counts cache accesses so that another goroutine can read them
// while the replay runs.
type StatsHook struct {
	name      string
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	clock     atomic.Uint64
}

// NewStatsHook creates a StatsHook for the cache with the given name.
func NewStatsHook(name string) *StatsHook {
	return &StatsHook{name: name}
}

// Func counts one access.
func (h *StatsHook) Func(ctx hooking.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	detail, ok := ctx.Item.(cache.AccessDetail)
	if !ok {
		return
	}

	if detail.Outcome.IsHit() {
		h.hits.Inc()
	} else {
		h.misses.Inc()
	}

	if detail.Outcome.IsEviction() {
		h.evictions.Inc()
	}

	h.clock.Store(detail.Stamp)
}

// Snapshot reads the counters.
func (h *StatsHook) Snapshot() StatsSnapshot {
	s := StatsSnapshot{
		Cache:     h.name,
		Hits:      h.hits.Load(),
		Misses:    h.misses.Load(),
		Evictions: h.evictions.Load(),
		Clock:     h.clock.Load(),
	}

	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}

	return s
}
