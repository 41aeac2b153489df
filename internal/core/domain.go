package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Amount is a monetary value in minor currency units. Amounts are always
	// unsigned; income vs. expense semantics live in TransactionType.
	Amount int64

	// Transaction is a single income or expense record owned by one user.
	// CategoryName and CreditCardName are joined display fields filled in by
	// the backend on list/read; they are never written back.
	Transaction struct {
		ID             string
		Type           TransactionType
		Amount         Amount
		Note           string
		Date           time.Time
		UserID         string
		CategoryID     string // empty means uncategorized
		CategoryName   string
		CreditCardID   string // empty means not card-linked
		CreditCardName string
	}

	// TransactionInput is the user-supplied part of a transaction.
	TransactionInput struct {
		Type         TransactionType
		Amount       Amount
		Note         string
		Date         time.Time
		UserID       string
		CategoryID   string
		CreditCardID string
	}

	// Category groups transactions. Name is unique per user, enforced by the
	// backend. Limit of 0 means no spending limit.
	Category struct {
		ID     string
		Name   string
		Limit  Amount
		UserID string
	}

	CategoryInput struct {
		Name  string
		Limit Amount
	}

	// CreditCard is read-only from this layer.
	CreditCard struct {
		ID                    string
		CardName              string
		CreditLimit           Amount
		CurrentBalance        Amount
		CurrentStatementStart time.Time
		CurrentStatementEnd   time.Time
		CurrentDueDate        time.Time
		DueDay                int
		StatementDay          int
		IsActive              bool
		UserID                string
	}

	User struct {
		ID        string
		Email     string
		Name      string
		AvatarURL string
	}

	// Session is the authenticated state for one user. ExpiresAt bounds the
	// access token, not the refresh token.
	Session struct {
		User         User
		AccessToken  string
		RefreshToken string
		ExpiresAt    time.Time
	}
)

var (
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrMissingUser   = errors.New("missing user reference")
	ErrEmptyName     = errors.New("empty category name")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (a Amount) Validate() error {
	if a <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (in TransactionInput) Validate() error {
	if !in.Type.Valid() {
		return ErrInvalidType
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(in.UserID) == "" {
		return ErrMissingUser
	}
	if len(in.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if len(in.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	if in.Limit < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// CardLinked reports whether the transaction references a credit card.
func (t Transaction) CardLinked() bool {
	return t.CreditCardID != ""
}

// FreshFor reports whether the session's access token is still valid for at
// least the given margin.
func (s Session) FreshFor(margin time.Duration, now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return s.ExpiresAt.Sub(now) > margin
}
