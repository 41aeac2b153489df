package gateway

import (
	"time"

	"moneytrack/internal/core"
)

// Wire shapes for the backend's table resources. Joined relations come back
// as nested objects named after the foreign table.

type nameRef struct {
	Name string `json:"name"`
}

type cardNameRef struct {
	CardName string `json:"card_name"`
}

type txRow struct {
	ID           string       `json:"id"`
	Type         string       `json:"type"`
	Amount       int64        `json:"amount"`
	Note         string       `json:"note"`
	Date         string       `json:"date"`
	UserID       string       `json:"user_id"`
	CategoryID   *string      `json:"category_id"`
	Categories   *nameRef     `json:"categories"`
	CreditCardID *string      `json:"credit_card_id"`
	CreditCards  *cardNameRef `json:"credit_cards"`
}

type txInsert struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Amount       int64   `json:"amount"`
	Note         string  `json:"note"`
	Date         string  `json:"date"`
	UserID       string  `json:"user_id"`
	CategoryID   *string `json:"category_id,omitempty"`
	CreditCardID *string `json:"credit_card_id,omitempty"`
}

type statRowWire struct {
	Type         string  `json:"type"`
	Amount       int64   `json:"amount"`
	CreditCardID *string `json:"credit_card_id"`
}

type categoryRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Limit  int64  `json:"limit"`
	UserID string `json:"user_id"`
}

type creditCardRow struct {
	ID                    string `json:"id"`
	CardName              string `json:"card_name"`
	CreditLimit           int64  `json:"credit_limit"`
	CurrentBalance        int64  `json:"current_balance"`
	CurrentStatementStart string `json:"current_statement_start"`
	CurrentStatementEnd   string `json:"current_statement_end"`
	CurrentDueDate        string `json:"current_due_date"`
	DueDay                int    `json:"due_day"`
	StatementDay          int    `json:"statement_day"`
	IsActive              bool   `json:"is_active"`
	UserID                string `json:"user_id"`
}

// sessionWire is the auth service's token response.
type sessionWire struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	User         userWire `json:"user"`
}

type userWire struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Metadata struct {
		FullName  string `json:"full_name"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user_metadata"`
}

func parseWireTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r txRow) toDomain() core.Transaction {
	t := core.Transaction{
		ID:           r.ID,
		Type:         core.TransactionType(r.Type),
		Amount:       core.Amount(r.Amount),
		Note:         r.Note,
		Date:         parseWireTime(r.Date),
		UserID:       r.UserID,
		CategoryID:   deref(r.CategoryID),
		CreditCardID: deref(r.CreditCardID),
	}
	if r.Categories != nil {
		t.CategoryName = r.Categories.Name
	}
	if r.CreditCards != nil {
		t.CreditCardName = r.CreditCards.CardName
	}
	return t
}

func (r categoryRow) toDomain() core.Category {
	return core.Category{
		ID:     r.ID,
		Name:   r.Name,
		Limit:  core.Amount(r.Limit),
		UserID: r.UserID,
	}
}

func (r creditCardRow) toDomain() core.CreditCard {
	return core.CreditCard{
		ID:                    r.ID,
		CardName:              r.CardName,
		CreditLimit:           core.Amount(r.CreditLimit),
		CurrentBalance:        core.Amount(r.CurrentBalance),
		CurrentStatementStart: parseWireTime(r.CurrentStatementStart),
		CurrentStatementEnd:   parseWireTime(r.CurrentStatementEnd),
		CurrentDueDate:        parseWireTime(r.CurrentDueDate),
		DueDay:                r.DueDay,
		StatementDay:          r.StatementDay,
		IsActive:              r.IsActive,
		UserID:                r.UserID,
	}
}

func (w sessionWire) toDomain(now time.Time) core.Session {
	expires := time.Time{}
	if w.ExpiresAt > 0 {
		expires = time.Unix(w.ExpiresAt, 0)
	} else if w.ExpiresIn > 0 {
		expires = now.Add(time.Duration(w.ExpiresIn) * time.Second)
	}
	return core.Session{
		User: core.User{
			ID:        w.User.ID,
			Email:     w.User.Email,
			Name:      w.User.Metadata.FullName,
			AvatarURL: w.User.Metadata.AvatarURL,
		},
		AccessToken:  w.AccessToken,
		RefreshToken: w.RefreshToken,
		ExpiresAt:    expires,
	}
}
