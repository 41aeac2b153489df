package store

import (
	"context"

	"moneytrack/internal/core"
	"moneytrack/internal/metrics"
)

// CreditCardState is a point-in-time snapshot of the credit-card slice.
// Cards are read-only from this layer, so there is no edit pointer.
type CreditCardState struct {
	Phase Phase
	Cards []core.CreditCard
	Err   string
}

type creditCardSlice struct {
	phase Phase
	list  []core.CreditCard
	err   string
	seq   uint64
}

func (s *Store) CreditCards() CreditCardState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := CreditCardState{
		Phase: s.cards.phase,
		Err:   s.cards.err,
	}
	if s.cards.list != nil {
		out.Cards = append([]core.CreditCard(nil), s.cards.list...)
	}
	return out
}

func (s *Store) FetchCreditCards(ctx context.Context, userID string) error {
	s.mu.Lock()
	token := beginFetch(&s.cards.seq, &s.cards.phase, &s.cards.err)
	s.mu.Unlock()

	list, err := s.gw.ListCreditCards(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if stale(s.cards.seq, token) {
		metrics.StaleResponsesDiscarded.WithLabelValues("credit_cards").Inc()
		return err
	}
	if err != nil {
		s.cards.phase = PhaseFailed
		s.cards.err = err.Error()
		return err
	}
	s.cards.phase = PhaseReady
	s.cards.list = list
	return nil
}
