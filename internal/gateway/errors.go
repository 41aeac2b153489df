package gateway

import (
	"errors"
	"fmt"
)

// Tagged failure categories. The original client distinguished "category in
// use" from a generic delete failure by sniffing whether a data field came
// back; here the backend's error codes map onto real error values instead.
var (
	ErrUnauthorized      = errors.New("not authorized")
	ErrNotFound          = errors.New("record not found")
	ErrCategoryInUse     = errors.New("category is referenced by transactions")
	ErrDuplicateCategory = errors.New("category name already exists")
	ErrTransport         = errors.New("backend unreachable")
)

// Postgres error codes surfaced by the backend's REST layer.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// APIError is the backend's structured error body. The auth service uses
// error/error_description, the REST layer uses code/message.
type APIError struct {
	Status   int    `json:"-"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Details  string `json:"details"`
	AuthErr  string `json:"error"`
	AuthDesc string `json:"error_description"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
}

// classify wraps an APIError with the matching sentinel so callers can use
// errors.Is without knowing backend codes.
func classify(apiErr *APIError) error {
	switch {
	case apiErr.Code == pgForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrCategoryInUse, apiErr.Message)
	case apiErr.Code == pgUniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicateCategory, apiErr.Message)
	case apiErr.Status == 401 || apiErr.Status == 403:
		return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
	case apiErr.Status == 404 || apiErr.Code == "PGRST116":
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
	default:
		return apiErr
	}
}
