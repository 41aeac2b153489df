package http

import (
	"time"

	"moneytrack/internal/core"
)

// JSON projections of the domain types.

type transactionJSON struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Amount         int64  `json:"amount"`
	Note           string `json:"note,omitempty"`
	Date           string `json:"date"`
	CategoryID     string `json:"category_id,omitempty"`
	CategoryName   string `json:"category_name,omitempty"`
	CreditCardID   string `json:"credit_card_id,omitempty"`
	CreditCardName string `json:"credit_card_name,omitempty"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:             t.ID,
		Type:           string(t.Type),
		Amount:         int64(t.Amount),
		Note:           t.Note,
		Date:           t.Date.Format(time.RFC3339),
		CategoryID:     t.CategoryID,
		CategoryName:   t.CategoryName,
		CreditCardID:   t.CreditCardID,
		CreditCardName: t.CreditCardName,
	}
}

func toTransactionListJSON(list []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, len(list))
	for i, t := range list {
		out[i] = toTransactionJSON(t)
	}
	return out
}

type categoryJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Limit int64  `json:"limit,omitempty"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, Limit: int64(c.Limit)}
}

func toCategoryListJSON(list []core.Category) []categoryJSON {
	out := make([]categoryJSON, len(list))
	for i, c := range list {
		out[i] = toCategoryJSON(c)
	}
	return out
}

type creditCardJSON struct {
	ID             string `json:"id"`
	CardName       string `json:"card_name"`
	CreditLimit    int64  `json:"credit_limit"`
	CurrentBalance int64  `json:"current_balance"`
	DueDay         int    `json:"due_day"`
	StatementDay   int    `json:"statement_day"`
	IsActive       bool   `json:"is_active"`
}

func toCreditCardJSON(c core.CreditCard) creditCardJSON {
	return creditCardJSON{
		ID:             c.ID,
		CardName:       c.CardName,
		CreditLimit:    int64(c.CreditLimit),
		CurrentBalance: int64(c.CurrentBalance),
		DueDay:         c.DueDay,
		StatementDay:   c.StatementDay,
		IsActive:       c.IsActive,
	}
}

func toCreditCardListJSON(list []core.CreditCard) []creditCardJSON {
	out := make([]creditCardJSON, len(list))
	for i, c := range list {
		out[i] = toCreditCardJSON(c)
	}
	return out
}

type statsJSON struct {
	Income        int64 `json:"income"`
	Expense       int64 `json:"expense"`
	Balance       int64 `json:"balance"`
	CreditCard    int64 `json:"credit_card"`
	PayCreditCard int64 `json:"pay_credit_card"`
}

func toStatsJSON(s core.Stats) statsJSON {
	return statsJSON{
		Income:        int64(s.Income),
		Expense:       int64(s.Expense),
		Balance:       int64(s.Balance),
		CreditCard:    int64(s.CreditCard),
		PayCreditCard: int64(s.PayCreditCard),
	}
}

type userJSON struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type sessionJSON struct {
	User      userJSON `json:"user"`
	ExpiresAt string   `json:"expires_at"`
}

func toSessionJSON(s core.Session) sessionJSON {
	return sessionJSON{
		User: userJSON{
			ID:        s.User.ID,
			Email:     s.User.Email,
			Name:      s.User.Name,
			AvatarURL: s.User.AvatarURL,
		},
		ExpiresAt: s.ExpiresAt.Format(time.RFC3339),
	}
}

// parseDate accepts a full timestamp or a bare date.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
