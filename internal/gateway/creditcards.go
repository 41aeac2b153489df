package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"moneytrack/internal/core"
)

// ListCreditCards is a read-only fetch; cards are provisioned out of band.
func (c *Client) ListCreditCards(ctx context.Context, userID string) ([]core.CreditCard, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)

	var rows []creditCardRow
	if err := c.rest(ctx, "list_credit_cards", http.MethodGet, "credit_cards", q, nil, &rows, false); err != nil {
		return nil, fmt.Errorf("list credit cards: %w", err)
	}

	out := make([]core.CreditCard, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}
