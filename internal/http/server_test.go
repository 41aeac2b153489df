package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"moneytrack/internal/config"
	"moneytrack/internal/core"
	"moneytrack/internal/filter"
	"moneytrack/internal/gateway"
	"moneytrack/internal/store"
)

// stubGateway implements store.Gateway with canned data.
type stubGateway struct {
	transactions []core.Transaction
	categories   []core.Category
	cards        []core.CreditCard
	stats        core.Stats
	session      core.Session

	signInErr    error
	deleteCatErr error
	exchangeErr  error

	lastRange *core.DateRange // range seen by the latest list call
}

func (g *stubGateway) ListTransactions(ctx context.Context, userID string, rng *core.DateRange) ([]core.Transaction, error) {
	g.lastRange = rng
	return append([]core.Transaction(nil), g.transactions...), nil
}

func (g *stubGateway) TransactionStats(ctx context.Context, userID string, rng *core.DateRange) (core.Stats, error) {
	return g.stats, nil
}

func (g *stubGateway) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	return core.Transaction{
		ID: "tx-created", Type: in.Type, Amount: in.Amount,
		Note: in.Note, Date: in.Date, UserID: in.UserID,
	}, nil
}

func (g *stubGateway) UpdateTransaction(ctx context.Context, id string, patch gateway.TransactionPatch) (core.Transaction, error) {
	t := core.Transaction{ID: id, Type: core.Expense, Amount: 100, Date: time.Now(), UserID: "user-1"}
	if patch.Note != nil {
		t.Note = *patch.Note
	}
	return t, nil
}

func (g *stubGateway) DeleteTransaction(ctx context.Context, id string) error { return nil }

func (g *stubGateway) ListCategories(ctx context.Context) ([]core.Category, error) {
	return append([]core.Category(nil), g.categories...), nil
}

func (g *stubGateway) CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	return core.Category{ID: "cat-created", Name: in.Name, Limit: in.Limit}, nil
}

func (g *stubGateway) UpdateCategory(ctx context.Context, id string, in core.CategoryInput) (core.Category, error) {
	return core.Category{ID: id, Name: in.Name, Limit: in.Limit}, nil
}

func (g *stubGateway) DeleteCategory(ctx context.Context, id string) error { return g.deleteCatErr }

func (g *stubGateway) ListCreditCards(ctx context.Context, userID string) ([]core.CreditCard, error) {
	return append([]core.CreditCard(nil), g.cards...), nil
}

func (g *stubGateway) SignInWithPassword(ctx context.Context, email, password string) (core.Session, error) {
	if g.signInErr != nil {
		return core.Session{}, g.signInErr
	}
	return g.session, nil
}

func (g *stubGateway) SignUp(ctx context.Context, email, password string) (core.Session, error) {
	return g.session, nil
}

func (g *stubGateway) GetSession(ctx context.Context, accessToken string) (core.User, error) {
	return g.session.User, nil
}

func (g *stubGateway) RefreshSession(ctx context.Context, refreshToken string) (core.Session, error) {
	return g.session, nil
}

func (g *stubGateway) ExchangeCode(ctx context.Context, code string) (core.Session, error) {
	if g.exchangeErr != nil {
		return core.Session{}, g.exchangeErr
	}
	return g.session, nil
}

func (g *stubGateway) SignOut(ctx context.Context, accessToken string) error { return nil }

func (g *stubGateway) ResetPassword(ctx context.Context, email, redirectTo string) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8081",
		BackendURL:     "https://backend.test",
		BackendAnonKey: "anon",
		SessionTimeout: 3 * time.Second,
	}
}

func stubSession() core.Session {
	return core.Session{
		User:         core.User{ID: "user-1", Email: "a@b.c"},
		AccessToken:  "test-token",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func newTestServer(t *testing.T, gw *stubGateway, cfg *config.Config) (*httptest.Server, *store.Store) {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	st := store.New(gw, store.Hooks{}, nil)
	srv := NewServer(cfg, st, nil, filter.New(time.UTC), nil)
	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(func() {
		ts.Close()
		srv.rateLimiter.stop()
	})
	return ts, st
}

// noRedirect returns a client that surfaces 3xx responses instead of
// following them.
func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func signIn(t *testing.T, ts *httptest.Server) *http.Cookie {
	t.Helper()
	body := bytes.NewBufferString(`{"email":"a@b.c","password":"pw"}`)
	resp, err := http.Post(ts.URL+"/api/auth/sign-in", "application/json", body)
	if err != nil {
		t.Fatalf("sign-in request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sign-in status = %d", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func authedRequest(t *testing.T, ts *httptest.Server, cookie *http.Cookie, method, path string, body []byte) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, ts.URL+path, bytes.NewReader(body))
	} else {
		req, err = http.NewRequest(method, ts.URL+path, nil)
	}
	if err != nil {
		t.Fatal(err)
	}
	req.AddCookie(cookie)
	resp, err := noRedirect().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, &stubGateway{session: stubSession()}, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d", path, resp.StatusCode)
		}
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	ts, _ := newTestServer(t, &stubGateway{session: stubSession()}, nil)

	resp, err := noRedirect().Get(ts.URL + "/dashboard")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Errorf("GET /dashboard status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}

	resp, err = http.Get(ts.URL + "/api/transactions")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /api/transactions status = %d, want 401", resp.StatusCode)
	}
}

func TestSignInSetsCookieAndUnlocksAPI(t *testing.T) {
	gw := &stubGateway{
		session: stubSession(),
		transactions: []core.Transaction{{
			ID: "tx-1", Type: core.Expense, Amount: 1500,
			Date: time.Now(), UserID: "user-1", CategoryName: "Food",
		}},
	}
	ts, _ := newTestServer(t, gw, nil)
	cookie := signIn(t, ts)

	resp := authedRequest(t, ts, cookie, http.MethodGet, "/api/transactions", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Transactions []transactionJSON `json:"transactions"`
		Phase        string            `json:"phase"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Transactions) != 1 || body.Transactions[0].CategoryName != "Food" {
		t.Errorf("transactions = %+v", body.Transactions)
	}
	if body.Phase != "ready" {
		t.Errorf("phase = %q", body.Phase)
	}
}

func TestAuthenticatedRedirectedOffLoginPage(t *testing.T) {
	ts, _ := newTestServer(t, &stubGateway{session: stubSession()}, nil)
	cookie := signIn(t, ts)

	resp := authedRequest(t, ts, cookie, http.MethodGet, "/login", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}
}

func TestSignInBadCredentials(t *testing.T) {
	gw := &stubGateway{signInErr: gateway.ErrUnauthorized}
	ts, _ := newTestServer(t, gw, nil)

	body := bytes.NewBufferString(`{"email":"a@b.c","password":"wrong"}`)
	resp, err := http.Post(ts.URL+"/api/auth/sign-in", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	ts, _ := newTestServer(t, &stubGateway{session: stubSession()}, nil)
	cookie := signIn(t, ts)

	resp := authedRequest(t, ts, cookie, http.MethodPost, "/api/transactions",
		[]byte(`{"type":"expense","amount":-5,"date":"2025-03-10"}`))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("negative amount status = %d, want 422", resp.StatusCode)
	}

	resp = authedRequest(t, ts, cookie, http.MethodPost, "/api/transactions",
		[]byte(`{"type":"expense","amount":1500,"date":"2025-03-10","note":"lunch"}`))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var created transactionJSON
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID != "tx-created" || created.Note != "lunch" {
		t.Errorf("created = %+v", created)
	}
}

func TestDeleteCategoryInUseConflict(t *testing.T) {
	gw := &stubGateway{
		session:      stubSession(),
		categories:   []core.Category{{ID: "cat-1", Name: "Food"}},
		deleteCatErr: gateway.ErrCategoryInUse,
	}
	ts, _ := newTestServer(t, gw, nil)
	cookie := signIn(t, ts)

	resp := authedRequest(t, ts, cookie, http.MethodDelete, "/api/categories/cat-1", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Code != "category_in_use" {
		t.Errorf("code = %q, want category_in_use", body.Code)
	}
}

func TestOAuthCallback(t *testing.T) {
	t.Run("missing code", func(t *testing.T) {
		ts, _ := newTestServer(t, &stubGateway{session: stubSession()}, nil)
		resp, err := noRedirect().Get(ts.URL + "/auth/callback")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if loc := resp.Header.Get("Location"); loc != "/login?error=auth_error" {
			t.Errorf("Location = %q", loc)
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		gw := &stubGateway{exchangeErr: errors.New("bad code")}
		ts, _ := newTestServer(t, gw, nil)
		resp, err := noRedirect().Get(ts.URL + "/auth/callback?code=abc")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if loc := resp.Header.Get("Location"); loc != "/login?error=auth_error" {
			t.Errorf("Location = %q", loc)
		}
	})

	t.Run("email not allowed", func(t *testing.T) {
		cfg := testConfig()
		cfg.AllowedEmails = []string{"someone-else@b.c"}
		ts, _ := newTestServer(t, &stubGateway{session: stubSession()}, cfg)
		resp, err := noRedirect().Get(ts.URL + "/auth/callback?code=abc")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if loc := resp.Header.Get("Location"); loc != "/login?error=email_not_allowed" {
			t.Errorf("Location = %q", loc)
		}
	})

	t.Run("allowed email lands on dashboard", func(t *testing.T) {
		cfg := testConfig()
		cfg.AllowedEmails = []string{"A@B.C"} // case-insensitive match
		ts, st := newTestServer(t, &stubGateway{session: stubSession()}, cfg)
		resp, err := noRedirect().Get(ts.URL + "/auth/callback?code=abc")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if loc := resp.Header.Get("Location"); loc != "/dashboard" {
			t.Errorf("Location = %q", loc)
		}
		if st.Session().Session == nil {
			t.Error("session not installed after callback")
		}
	})
}

func TestSignOutClearsCookie(t *testing.T) {
	ts, st := newTestServer(t, &stubGateway{session: stubSession()}, nil)
	cookie := signIn(t, ts)

	resp := authedRequest(t, ts, cookie, http.MethodPost, "/api/auth/sign-out", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie && c.MaxAge != -1 {
			t.Error("session cookie not expired on sign-out")
		}
	}
	if st.Session().Session != nil {
		t.Error("store session survives sign-out")
	}

	// The old cookie no longer authenticates.
	resp = authedRequest(t, ts, cookie, http.MethodGet, "/api/transactions", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status after sign-out = %d, want 401", resp.StatusCode)
	}
}

func TestFilterEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, &stubGateway{session: stubSession()}, nil)
	cookie := signIn(t, ts)

	resp := authedRequest(t, ts, cookie, http.MethodPut, "/api/filter/month",
		[]byte(`{"month":"Smarch"}`))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("invalid month status = %d, want 422", resp.StatusCode)
	}

	resp = authedRequest(t, ts, cookie, http.MethodPut, "/api/filter/month",
		[]byte(`{"month":"Mar"}`))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Month        string `json:"month"`
		RefreshCount uint64 `json:"refresh_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Month != "Mar" || body.RefreshCount != 1 {
		t.Errorf("body = %+v", body)
	}

	get := authedRequest(t, ts, cookie, http.MethodGet, "/api/filter", nil)
	defer get.Body.Close()
	var state struct {
		Month string `json:"month"`
		Range struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"range"`
	}
	if err := json.NewDecoder(get.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if state.Month != "Mar" {
		t.Errorf("month = %q", state.Month)
	}
}

func TestExplicitMonthMatchesFilterRange(t *testing.T) {
	gw := &stubGateway{session: stubSession()}
	loc := time.FixedZone("UTC+10", 10*60*60)
	st := store.New(gw, store.Hooks{}, nil)
	srv := NewServer(testConfig(), st, nil, filter.New(loc), nil)
	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(func() {
		ts.Close()
		srv.rateLimiter.stop()
	})
	cookie := signIn(t, ts)

	resp := authedRequest(t, ts, cookie, http.MethodGet, "/api/transactions?month=Mar", nil)
	resp.Body.Close()
	explicit := gw.lastRange

	resp = authedRequest(t, ts, cookie, http.MethodPut, "/api/filter/month", []byte(`{"month":"Mar"}`))
	resp.Body.Close()
	resp = authedRequest(t, ts, cookie, http.MethodGet, "/api/transactions", nil)
	resp.Body.Close()
	selected := gw.lastRange

	if explicit == nil || selected == nil {
		t.Fatal("list calls did not carry a range")
	}
	if !explicit.Start.Equal(selected.Start) || !explicit.End.Equal(selected.End) {
		t.Errorf("?month= resolved to %v .. %v, selection to %v .. %v",
			explicit.Start, explicit.End, selected.Start, selected.End)
	}
}

func TestStatsEndpoint(t *testing.T) {
	gw := &stubGateway{
		session: stubSession(),
		stats:   core.Stats{Income: 500000, Expense: 200000, Balance: 500000, CreditCard: 200000},
	}
	ts, _ := newTestServer(t, gw, nil)
	cookie := signIn(t, ts)

	resp := authedRequest(t, ts, cookie, http.MethodGet, "/api/stats", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got statsJSON
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Income != 500000 || got.Balance != 500000 || got.CreditCard != 200000 {
		t.Errorf("stats = %+v", got)
	}
}
