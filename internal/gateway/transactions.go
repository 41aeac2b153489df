package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"moneytrack/internal/core"
)

const txSelectJoined = "*,categories(name),credit_cards(card_name)"

func rangeQuery(q url.Values, rng *core.DateRange) {
	if rng == nil || rng.IsZero() {
		return
	}
	q.Set("date", "gte."+rng.Start.UTC().Format(time.RFC3339Nano))
	q.Add("date", "lte."+rng.End.UTC().Format(time.RFC3339Nano))
}

// ListTransactions returns the user's transactions for the optional date
// range, joined with category and card names, ordered by date descending.
func (c *Client) ListTransactions(ctx context.Context, userID string, rng *core.DateRange) ([]core.Transaction, error) {
	q := url.Values{}
	q.Set("select", txSelectJoined)
	q.Set("user_id", "eq."+userID)
	q.Set("order", "date.desc")
	rangeQuery(q, rng)

	var rows []txRow
	if err := c.rest(ctx, "list_transactions", http.MethodGet, "transactions", q, nil, &rows, false); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]core.Transaction, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// CreateTransaction inserts one record and returns the stored row with the
// joined category name. The row ID is generated client-side so a retried
// insert cannot produce duplicates.
func (c *Client) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	body := txInsert{
		ID:           uuid.NewString(),
		Type:         string(in.Type),
		Amount:       int64(in.Amount),
		Note:         in.Note,
		Date:         in.Date.UTC().Format(time.RFC3339Nano),
		UserID:       in.UserID,
		CategoryID:   optional(in.CategoryID),
		CreditCardID: optional(in.CreditCardID),
	}

	q := url.Values{}
	q.Set("select", "*,categories(name)")

	var row txRow
	if err := c.rest(ctx, "create_transaction", http.MethodPost, "transactions", q, body, &row, true); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return row.toDomain(), nil
}

// UpdateTransaction applies a partial update by identifier. Ownership is
// enforced by the backend's row-level rules, not re-checked here.
func (c *Client) UpdateTransaction(ctx context.Context, id string, patch TransactionPatch) (core.Transaction, error) {
	fields := map[string]any{}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return core.Transaction{}, core.ErrInvalidType
		}
		fields["type"] = string(*patch.Type)
	}
	if patch.Amount != nil {
		if err := patch.Amount.Validate(); err != nil {
			return core.Transaction{}, err
		}
		fields["amount"] = int64(*patch.Amount)
	}
	if patch.Note != nil {
		fields["note"] = *patch.Note
	}
	if patch.Date != nil {
		fields["date"] = *patch.Date
	}
	if patch.CategoryID != nil {
		fields["category_id"] = optional(*patch.CategoryID)
	}
	if patch.CreditCardID != nil {
		fields["credit_card_id"] = optional(*patch.CreditCardID)
	}
	if len(fields) == 0 {
		return core.Transaction{}, fmt.Errorf("update transaction: empty patch")
	}

	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("select", "*,categories(name)")

	var row txRow
	if err := c.rest(ctx, "update_transaction", http.MethodPatch, "transactions", q, fields, &row, true); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return row.toDomain(), nil
}

// DeleteTransaction removes a row. The filter includes the caller's user id
// so the backend rejects deletes against rows the caller does not own.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	me, err := c.currentUserID(ctx)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("user_id", "eq."+me)

	if err := c.rest(ctx, "delete_transaction", http.MethodDelete, "transactions", q, nil, nil, false); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// TransactionStats fetches the minimal projection for the range and folds it
// into totals with core.ComputeStats.
func (c *Client) TransactionStats(ctx context.Context, userID string, rng *core.DateRange) (core.Stats, error) {
	q := url.Values{}
	q.Set("select", "type,amount,credit_card_id")
	q.Set("user_id", "eq."+userID)
	rangeQuery(q, rng)

	var rows []statRowWire
	if err := c.rest(ctx, "transaction_stats", http.MethodGet, "transactions", q, nil, &rows, false); err != nil {
		return core.Stats{}, fmt.Errorf("transaction stats: %w", err)
	}

	statRows := make([]core.StatRow, len(rows))
	for i, r := range rows {
		statRows[i] = core.StatRow{
			Type:         core.TransactionType(r.Type),
			Amount:       core.Amount(r.Amount),
			CreditCardID: deref(r.CreditCardID),
		}
	}
	return core.ComputeStats(statRows), nil
}

// currentUserID resolves the authenticated user from the access token.
func (c *Client) currentUserID(ctx context.Context) (string, error) {
	tok := c.bearer()
	if tok == c.anonKey {
		return "", ErrUnauthorized
	}
	user, err := c.GetSession(ctx, tok)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
