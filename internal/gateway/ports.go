package gateway

import (
	"context"

	"moneytrack/internal/core"
)

// Ports for the remote backend. The REST client is the only implementation
// that performs network I/O; everything above depends on these interfaces.
type (
	TransactionReader interface {
		// ListTransactions returns the user's transactions, newest first,
		// optionally restricted to a closed date interval. Rows carry joined
		// category and credit-card display names.
		ListTransactions(ctx context.Context, userID string, rng *core.DateRange) ([]core.Transaction, error)
		// TransactionStats aggregates the minimal row projection for the range.
		TransactionStats(ctx context.Context, userID string, rng *core.DateRange) (core.Stats, error)
	}

	TransactionWriter interface {
		CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id string, patch TransactionPatch) (core.Transaction, error)
		// DeleteTransaction removes a row scoped to the authenticated caller.
		DeleteTransaction(ctx context.Context, id string) error
	}

	CategoryGateway interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error)
		UpdateCategory(ctx context.Context, id string, in core.CategoryInput) (core.Category, error)
		// DeleteCategory fails with ErrCategoryInUse while transactions still
		// reference the category.
		DeleteCategory(ctx context.Context, id string) error
	}

	CreditCardReader interface {
		ListCreditCards(ctx context.Context, userID string) ([]core.CreditCard, error)
	}

	Authenticator interface {
		SignInWithPassword(ctx context.Context, email, password string) (core.Session, error)
		SignUp(ctx context.Context, email, password string) (core.Session, error)
		GetSession(ctx context.Context, accessToken string) (core.User, error)
		RefreshSession(ctx context.Context, refreshToken string) (core.Session, error)
		// ExchangeCode trades an OAuth authorization code for a session.
		ExchangeCode(ctx context.Context, code string) (core.Session, error)
		SignOut(ctx context.Context, accessToken string) error
		ResetPassword(ctx context.Context, email, redirectTo string) error
	}
)

// TransactionPatch is a partial update; nil fields are left untouched.
type TransactionPatch struct {
	Type         *core.TransactionType
	Amount       *core.Amount
	Note         *string
	Date         *string // ISO-8601
	CategoryID   *string
	CreditCardID *string
}
