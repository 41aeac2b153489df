package core

// StatRow is the minimal transaction projection fetched for aggregation:
// type, amount, and whether a credit card is referenced.
type StatRow struct {
	Type         TransactionType
	Amount       Amount
	CreditCardID string
}

// Stats are the derived totals over one user and date range. Balance excludes
// card-linked expenses: those are assumed settled separately through
// PayCreditCard income entries tagged with the card they pay down.
type Stats struct {
	Income        Amount
	Expense       Amount
	Balance       Amount
	CreditCard    Amount // expense total linked to a card
	PayCreditCard Amount // income total linked to a card
}

// ComputeStats folds a row set into totals. The fold is pure and
// order-independent: the same rows always produce the same result.
func ComputeStats(rows []StatRow) Stats {
	var s Stats
	var expenseOutsideCard Amount
	for _, r := range rows {
		linked := r.CreditCardID != ""
		switch r.Type {
		case Income:
			if linked {
				s.PayCreditCard += r.Amount
			} else {
				s.Income += r.Amount
			}
		case Expense:
			s.Expense += r.Amount
			if linked {
				s.CreditCard += r.Amount
			} else {
				expenseOutsideCard += r.Amount
			}
		}
	}
	s.Balance = s.Income - expenseOutsideCard
	return s
}
