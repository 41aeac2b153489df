package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"moneytrack/internal/core"
)

// ListCategories returns every category visible to the caller; the backend's
// row rules already scope the result to the authenticated user.
func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "name.asc")

	var rows []categoryRow
	if err := c.rest(ctx, "list_categories", http.MethodGet, "categories", q, nil, &rows, false); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	out := make([]core.Category, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// CreateCategory inserts a category. Name uniqueness is enforced by the
// backend and surfaces as ErrDuplicateCategory.
func (c *Client) CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}

	body := map[string]any{"name": in.Name}
	if in.Limit > 0 {
		body["limit"] = int64(in.Limit)
	}

	q := url.Values{}
	q.Set("select", "*")

	var row categoryRow
	if err := c.rest(ctx, "create_category", http.MethodPost, "categories", q, body, &row, true); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return row.toDomain(), nil
}

func (c *Client) UpdateCategory(ctx context.Context, id string, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}

	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("select", "*")

	body := map[string]any{"name": in.Name, "limit": int64(in.Limit)}

	var row categoryRow
	if err := c.rest(ctx, "update_category", http.MethodPatch, "categories", q, body, &row, true); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	return row.toDomain(), nil
}

// DeleteCategory removes a category. While any transaction still references
// it the backend refuses with a foreign-key violation, surfaced as
// ErrCategoryInUse so the caller can show the dedicated message.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)

	if err := c.rest(ctx, "delete_category", http.MethodDelete, "categories", q, nil, nil, false); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
