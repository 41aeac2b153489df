package core

import (
	"math/rand"
	"testing"
)

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name string
		rows []StatRow
		want Stats
	}{
		{
			name: "empty set",
			rows: nil,
			want: Stats{},
		},
		{
			name: "plain income counts toward income and balance",
			rows: []StatRow{
				{Type: Income, Amount: 500000},
			},
			want: Stats{Income: 500000, Balance: 500000},
		},
		{
			name: "card-linked income is a card payment, not income",
			rows: []StatRow{
				{Type: Income, Amount: 300000, CreditCardID: "card-1"},
			},
			want: Stats{PayCreditCard: 300000},
		},
		{
			name: "card-linked expense does not reduce balance",
			rows: []StatRow{
				{Type: Expense, Amount: 200000, CreditCardID: "card-1"},
			},
			want: Stats{Expense: 200000, CreditCard: 200000},
		},
		{
			name: "cash expense reduces balance",
			rows: []StatRow{
				{Type: Income, Amount: 1000000},
				{Type: Expense, Amount: 400000},
			},
			want: Stats{Income: 1000000, Expense: 400000, Balance: 600000},
		},
		{
			name: "mixed set",
			rows: []StatRow{
				{Type: Income, Amount: 500000},
				{Type: Income, Amount: 250000, CreditCardID: "card-1"},
				{Type: Expense, Amount: 100000},
				{Type: Expense, Amount: 200000, CreditCardID: "card-1"},
			},
			want: Stats{
				Income:        500000,
				Expense:       300000,
				Balance:       400000,
				CreditCard:    200000,
				PayCreditCard: 250000,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStats(tt.rows)
			if got != tt.want {
				t.Errorf("ComputeStats() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeStatsIdempotent(t *testing.T) {
	rows := []StatRow{
		{Type: Income, Amount: 123},
		{Type: Expense, Amount: 45, CreditCardID: "c"},
		{Type: Expense, Amount: 67},
	}
	first := ComputeStats(rows)
	second := ComputeStats(rows)
	if first != second {
		t.Errorf("repeated computation differs: %+v vs %+v", first, second)
	}
}

func TestComputeStatsOrderIndependent(t *testing.T) {
	rows := []StatRow{
		{Type: Income, Amount: 500000},
		{Type: Income, Amount: 250000, CreditCardID: "card-1"},
		{Type: Expense, Amount: 100000},
		{Type: Expense, Amount: 200000, CreditCardID: "card-2"},
		{Type: Expense, Amount: 50000},
	}
	want := ComputeStats(rows)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := make([]StatRow, len(rows))
		copy(shuffled, rows)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := ComputeStats(shuffled); got != want {
			t.Fatalf("shuffle %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestComputeStatsBalanceIdentity(t *testing.T) {
	rows := []StatRow{
		{Type: Income, Amount: 800000},
		{Type: Income, Amount: 150000, CreditCardID: "card-1"},
		{Type: Expense, Amount: 120000},
		{Type: Expense, Amount: 340000, CreditCardID: "card-1"},
	}
	s := ComputeStats(rows)

	var expenseOutsideCard Amount
	for _, r := range rows {
		if r.Type == Expense && r.CreditCardID == "" {
			expenseOutsideCard += r.Amount
		}
	}
	if s.Balance != s.Income-expenseOutsideCard {
		t.Errorf("balance = %d, want income %d - cash expense %d", s.Balance, s.Income, expenseOutsideCard)
	}
}
