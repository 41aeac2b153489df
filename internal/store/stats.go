package store

import (
	"context"

	"moneytrack/internal/core"
	"moneytrack/internal/log"
	"moneytrack/internal/metrics"
)

// StatsState is a point-in-time snapshot of the derived-statistics slice.
type StatsState struct {
	Phase Phase
	Stats *core.Stats
	Err   string
}

type statsSlice struct {
	phase Phase
	stats *core.Stats
	err   string
	seq   uint64 // fetch token issue counter
}

// Stats returns a snapshot; the stats value is a copy.
func (s *Store) Stats() StatsState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := StatsState{
		Phase: s.stats.phase,
		Err:   s.stats.err,
	}
	if s.stats.stats != nil {
		stats := *s.stats.stats
		out.Stats = &stats
	}
	return out
}

// FetchStats replaces the derived-statistics object with the backend's fold
// over the range. A response that loses the race against a newer fetch is
// discarded.
func (s *Store) FetchStats(ctx context.Context, userID string, rng *core.DateRange) error {
	s.mu.Lock()
	token := beginFetch(&s.stats.seq, &s.stats.phase, &s.stats.err)
	s.mu.Unlock()

	stats, err := s.gw.TransactionStats(ctx, userID, rng)

	s.mu.Lock()
	defer s.mu.Unlock()
	if stale(s.stats.seq, token) {
		metrics.StaleResponsesDiscarded.WithLabelValues("stats").Inc()
		s.logger.Debug("discarded stale stats fetch", log.FieldUserID, userID)
		return err
	}
	if err != nil {
		s.stats.phase = PhaseFailed
		s.stats.err = err.Error()
		return err
	}
	s.stats.phase = PhaseReady
	s.stats.stats = &stats
	return nil
}
