package store

import (
	"context"

	"golang.org/x/sync/errgroup"

	"moneytrack/internal/core"
	"moneytrack/internal/gateway"
	"moneytrack/internal/log"
	"moneytrack/internal/metrics"
)

// TransactionState is a point-in-time snapshot of the transaction slice.
type TransactionState struct {
	Phase        Phase
	Transactions []core.Transaction
	Edit         *core.Transaction
	Err          string
}

type transactionSlice struct {
	phase Phase
	list  []core.Transaction
	edit  *core.Transaction
	err   string
	seq   uint64 // fetch token issue counter
}

// Transactions returns a snapshot; the returned slice is a copy.
func (s *Store) Transactions() TransactionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := TransactionState{
		Phase: s.tx.phase,
		Err:   s.tx.err,
	}
	if s.tx.list != nil {
		out.Transactions = append([]core.Transaction(nil), s.tx.list...)
	}
	if s.tx.edit != nil {
		edit := *s.tx.edit
		out.Edit = &edit
	}
	return out
}

// FetchTransactions replaces the cached list with the backend's view of the
// range. A response that loses the race against a newer fetch is discarded.
func (s *Store) FetchTransactions(ctx context.Context, userID string, rng *core.DateRange) error {
	s.mu.Lock()
	token := beginFetch(&s.tx.seq, &s.tx.phase, &s.tx.err)
	s.mu.Unlock()

	list, err := s.gw.ListTransactions(ctx, userID, rng)

	s.mu.Lock()
	defer s.mu.Unlock()
	if stale(s.tx.seq, token) {
		metrics.StaleResponsesDiscarded.WithLabelValues("transactions").Inc()
		s.logger.Debug("discarded stale transaction fetch", log.FieldUserID, userID)
		return err
	}
	if err != nil {
		s.tx.phase = PhaseFailed
		s.tx.err = err.Error()
		return err
	}
	s.tx.phase = PhaseReady
	s.tx.list = list
	return nil
}

// AddTransaction persists a new record and prepends it to the cache, newest
// first, matching the gateway's own ordering contract.
func (s *Store) AddTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	s.mu.Lock()
	s.tx.phase = PhaseLoading
	s.tx.err = ""
	s.mu.Unlock()

	created, err := s.gw.CreateTransaction(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.tx.phase = PhaseFailed
		s.tx.err = err.Error()
		return core.Transaction{}, err
	}
	s.tx.phase = PhaseReady
	s.tx.list = append([]core.Transaction{created}, s.tx.list...)
	s.mutatedLocked("transactions")
	return created, nil
}

// UpdateTransaction applies a partial update and replaces the cached record
// in place. Joined names on other cached rows are not back-patched; they
// refresh on the next full fetch.
func (s *Store) UpdateTransaction(ctx context.Context, id string, patch gateway.TransactionPatch) (core.Transaction, error) {
	updated, err := s.gw.UpdateTransaction(ctx, id, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.tx.err = err.Error()
		return core.Transaction{}, err
	}
	for i := range s.tx.list {
		if s.tx.list[i].ID == id {
			s.tx.list[i] = updated
			break
		}
	}
	s.tx.edit = nil
	s.mutatedLocked("transactions")
	return updated, nil
}

// RemoveTransaction deletes the record and drops it from the cache
// immediately, without waiting for a re-fetch.
func (s *Store) RemoveTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	s.tx.phase = PhaseLoading
	s.tx.err = ""
	s.mu.Unlock()

	err := s.gw.DeleteTransaction(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.tx.phase = PhaseFailed
		s.tx.err = err.Error()
		return err
	}
	s.tx.phase = PhaseReady
	filtered := s.tx.list[:0]
	for _, t := range s.tx.list {
		if t.ID != id {
			filtered = append(filtered, t)
		}
	}
	s.tx.list = filtered
	s.mutatedLocked("transactions")
	return nil
}

// SetTransactionEdit marks a record as being edited; nil clears the pointer
// (submit or cancel).
func (s *Store) SetTransactionEdit(t *core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tx.edit = t
}

// ClearTransactions empties the list and its derived stats, e.g. on sign-out.
func (s *Store) ClearTransactions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tx = transactionSlice{}
	s.stats = statsSlice{}
}

// mutatedLocked releases the lock around the hook so hook code may call back
// into the store.
func (s *Store) mutatedLocked(entity string) {
	if s.hooks.OnMutation == nil {
		return
	}
	s.mu.Unlock()
	s.hooks.OnMutation(entity)
	s.mu.Lock()
}

// RefreshAll dispatches the view-mount fetch set concurrently: transactions,
// stats, categories, and credit cards. The dispatchers own distinct slices,
// so one failing does not cancel the others; each failure lands in its own
// slice and the first is also returned for logging.
func (s *Store) RefreshAll(ctx context.Context, userID string, rng *core.DateRange) error {
	var g errgroup.Group
	g.Go(func() error { return s.FetchTransactions(ctx, userID, rng) })
	g.Go(func() error { return s.FetchStats(ctx, userID, rng) })
	g.Go(func() error { return s.FetchCategories(ctx) })
	g.Go(func() error { return s.FetchCreditCards(ctx, userID) })
	return g.Wait()
}
