package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"moneytrack/internal/core"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL: srv.URL,
		AnonKey: "anon-key",
		Tokens:  StaticToken("user-token"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestListTransactionsQueryAndDecode(t *testing.T) {
	var gotQuery string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/transactions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("apikey header = %q", r.Header.Get("apikey"))
		}
		if r.Header.Get("Authorization") != "Bearer user-token" {
			t.Errorf("authorization header = %q", r.Header.Get("Authorization"))
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"t1","type":"expense","amount":200000,"note":"dinner","date":"2025-03-05T12:00:00Z",
			 "user_id":"u1","category_id":"c1","categories":{"name":"Food"},
			 "credit_card_id":"card-1","credit_cards":{"card_name":"Visa"}},
			{"id":"t2","type":"income","amount":500000,"note":"","date":"2025-03-01T00:00:00Z",
			 "user_id":"u1","category_id":null,"categories":null,"credit_card_id":null,"credit_cards":null}
		]`))
	})

	c := newTestClient(t, handler)
	rng, _ := core.ResolveRange(core.MonthMar, 2025, time.UTC)
	txs, err := c.ListTransactions(t.Context(), "u1", &rng)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}

	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	first := txs[0]
	if first.CategoryName != "Food" || first.CreditCardName != "Visa" {
		t.Errorf("joined names not decoded: %+v", first)
	}
	if first.Amount != 200000 || first.Type != core.Expense {
		t.Errorf("row fields: %+v", first)
	}
	if txs[1].CategoryID != "" || txs[1].CreditCardID != "" {
		t.Errorf("null references should map to empty strings: %+v", txs[1])
	}

	for _, want := range []string{"user_id=eq.u1", "order=date.desc", "date=gte.2025-03-01", "date=lte.2025-03-31"} {
		if !containsParam(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

// containsParam reports whether the raw query holds a key whose decoded
// value starts with the given "key=valueprefix" fragment.
func containsParam(rawQuery, fragment string) bool {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return false
	}
	key, prefix, _ := strings.Cut(fragment, "=")
	for _, v := range values[key] {
		if strings.HasPrefix(v, prefix) {
			return true
		}
	}
	return false
}

func TestCreateTransactionGeneratesID(t *testing.T) {
	var gotBody txInsert
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("missing Prefer header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode insert body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"` + gotBody.ID + `","type":"expense","amount":150000,"note":"groceries",
			"date":"2025-03-10T09:00:00Z","user_id":"u1","category_id":"c1","categories":{"name":"Food"}}`))
	})

	c := newTestClient(t, handler)
	tx, err := c.CreateTransaction(t.Context(), core.TransactionInput{
		Type:       core.Expense,
		Amount:     150000,
		Note:       "groceries",
		Date:       time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		UserID:     "u1",
		CategoryID: "c1",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if gotBody.ID == "" {
		t.Error("insert body should carry a client-generated id")
	}
	if tx.ID != gotBody.ID {
		t.Errorf("returned id %q != sent id %q", tx.ID, gotBody.ID)
	}
	if tx.CategoryName != "Food" {
		t.Errorf("joined category name missing: %+v", tx)
	}
}

func TestCreateTransactionRejectsInvalidInput(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid input must not reach the network")
	}))

	_, err := c.CreateTransaction(t.Context(), core.TransactionInput{Type: core.Expense, Amount: 0, UserID: "u1", Date: time.Now()})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("got %v, want ErrInvalidAmount", err)
	}
}

func TestDeleteTransactionScopesToOwner(t *testing.T) {
	var deleteQuery string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/user":
			_, _ = w.Write([]byte(`{"id":"u1","email":"me@example.com"}`))
		case "/rest/v1/transactions":
			if r.Method != http.MethodDelete {
				t.Errorf("method = %s", r.Method)
			}
			deleteQuery = r.URL.RawQuery
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	c := newTestClient(t, handler)
	if err := c.DeleteTransaction(t.Context(), "t1"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if !containsParam(deleteQuery, "id=eq.t1") || !containsParam(deleteQuery, "user_id=eq.u1") {
		t.Errorf("delete query %q must scope by id and owner", deleteQuery)
	}
}

func TestTransactionStatsFold(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !containsParam(r.URL.RawQuery, "select=type,amount,credit_card_id") {
			t.Errorf("stats should fetch the minimal projection, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[
			{"type":"income","amount":500000,"credit_card_id":null},
			{"type":"income","amount":100000,"credit_card_id":"card-1"},
			{"type":"expense","amount":200000,"credit_card_id":"card-1"},
			{"type":"expense","amount":50000,"credit_card_id":null}
		]`))
	})

	c := newTestClient(t, handler)
	stats, err := c.TransactionStats(t.Context(), "u1", nil)
	if err != nil {
		t.Fatalf("TransactionStats: %v", err)
	}

	want := core.Stats{Income: 500000, Expense: 250000, Balance: 450000, CreditCard: 200000, PayCreditCard: 100000}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23503","message":"update or delete on table \"categories\" violates foreign key constraint"}`))
	})

	c := newTestClient(t, handler)
	err := c.DeleteCategory(t.Context(), "c1")
	if !errors.Is(err, ErrCategoryInUse) {
		t.Errorf("got %v, want ErrCategoryInUse", err)
	}
}

func TestCreateCategoryDuplicate(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint"}`))
	})

	c := newTestClient(t, handler)
	_, err := c.CreateCategory(t.Context(), core.CategoryInput{Name: "Food"})
	if !errors.Is(err, ErrDuplicateCategory) {
		t.Errorf("got %v, want ErrDuplicateCategory", err)
	}
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"JWT expired"}`))
	})

	c := newTestClient(t, handler)
	_, err := c.ListCategories(t.Context())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("got %v, want ErrUnauthorized", err)
	}
}

func TestSignInWithPassword(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("grant_type"); got != "password" {
			t.Errorf("grant_type = %s", got)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "me@example.com" {
			t.Errorf("email = %s", body["email"])
		}
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,
			"user":{"id":"u1","email":"me@example.com","user_metadata":{"full_name":"Me","avatar_url":"https://a/b.png"}}}`))
	})

	c := newTestClient(t, handler)
	sess, err := c.SignInWithPassword(t.Context(), "me@example.com", "secret")
	if err != nil {
		t.Fatalf("SignInWithPassword: %v", err)
	}
	if sess.AccessToken != "at" || sess.User.Email != "me@example.com" || sess.User.Name != "Me" {
		t.Errorf("session = %+v", sess)
	}
	if !sess.ExpiresAt.After(time.Now().Add(50 * time.Minute)) {
		t.Errorf("expiry should honor expires_in, got %v", sess.ExpiresAt)
	}
}

func TestSignInBadCredentials(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})

	c := newTestClient(t, handler)
	_, err := c.SignInWithPassword(t.Context(), "me@example.com", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "Invalid login credentials" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestOAuthRedirectURL(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	u := c.OAuthRedirectURL("google", "https://app.example.com/auth/callback")
	if !strings.Contains(u, "/auth/v1/authorize?") || !strings.Contains(u, "provider=google") {
		t.Errorf("redirect URL = %q", u)
	}
}
