// Package http is the app's local surface: JSON endpoints over the store's
// dispatchers plus the OAuth callback, guarded by a session cookie.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"moneytrack/internal/config"
	"moneytrack/internal/filter"
	"moneytrack/internal/log"
	"moneytrack/internal/metrics"
	"moneytrack/internal/session"
	"moneytrack/internal/store"
)

const sessionCookie = "mt_session"

type Server struct {
	http.Server

	store   *store.Store
	cache   *session.Cache
	filters *filter.Context
	cfg     *config.Config
	logger  *log.Logger

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. cache may be nil, which disables session persistence.
func NewServer(cfg *config.Config, st *store.Store, cache *session.Cache, filters *filter.Context, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:       st,
		cache:       cache,
		filters:     filters,
		cfg:         cfg,
		logger:      logger,
		rateLimiter: newRateLimiter(),
	}

	// Public surface.
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /login", s.wrap(s.publicOnly(s.handleLoginPage)))
	mux.HandleFunc("GET /signup", s.wrap(s.publicOnly(s.handleSignupPage)))
	mux.HandleFunc("GET /auth/callback", s.wrap(s.handleOAuthCallback))
	mux.HandleFunc("POST /api/auth/sign-in", s.wrap(s.handleSignIn))
	mux.HandleFunc("POST /api/auth/sign-up", s.wrap(s.handleSignUp))
	mux.HandleFunc("POST /api/auth/reset-password", s.wrap(s.handleResetPassword))

	// Everything below requires a session.
	mux.HandleFunc("GET /dashboard", s.wrap(s.requireSession(s.handleDashboard)))
	mux.HandleFunc("POST /api/auth/sign-out", s.wrap(s.requireSession(s.handleSignOut)))
	mux.HandleFunc("POST /api/auth/refresh", s.wrap(s.requireSession(s.handleRefresh)))

	mux.HandleFunc("GET /api/transactions", s.wrap(s.requireSession(s.handleListTransactions)))
	mux.HandleFunc("POST /api/transactions", s.wrap(s.requireSession(s.handleCreateTransaction)))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.wrap(s.requireSession(s.handleUpdateTransaction)))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.wrap(s.requireSession(s.handleDeleteTransaction)))
	mux.HandleFunc("GET /api/stats", s.wrap(s.requireSession(s.handleStats)))

	mux.HandleFunc("GET /api/categories", s.wrap(s.requireSession(s.handleListCategories)))
	mux.HandleFunc("POST /api/categories", s.wrap(s.requireSession(s.handleCreateCategory)))
	mux.HandleFunc("PATCH /api/categories/{id}", s.wrap(s.requireSession(s.handleUpdateCategory)))
	mux.HandleFunc("DELETE /api/categories/{id}", s.wrap(s.requireSession(s.handleDeleteCategory)))

	mux.HandleFunc("GET /api/credit-cards", s.wrap(s.requireSession(s.handleListCreditCards)))

	mux.HandleFunc("GET /api/filter", s.wrap(s.requireSession(s.handleGetFilter)))
	mux.HandleFunc("PUT /api/filter/month", s.wrap(s.requireSession(s.handleSetMonth)))
	mux.HandleFunc("PUT /api/filter/form", s.wrap(s.requireSession(s.handleSetFormOpen)))

	mux.HandleFunc("/", s.wrap(s.handleRoot))

	return s
}

// wrap adds security headers, rate limiting on writes, request IDs, and
// request logging around a handler.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), log.LoggerContextKey,
			s.logger.With(log.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(rw.statusCode)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method).Observe(duration.Seconds())
		s.logger.InfoContext(ctx, "request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// requireSession gates a handler behind a valid session cookie. Browsers get
// a redirect to /login; API calls get a 401.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticated(r) {
			if isAPIPath(r.URL.Path) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
				return
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r)
	}
}

// publicOnly redirects already-authenticated users away from the auth pages.
func (s *Server) publicOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authenticated(r) {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		next(w, r)
	}
}

func (s *Server) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return false
	}
	st := s.store.Session()
	if st.Session == nil {
		return false
	}
	return cookie.Value == st.Session.AccessToken
}

func isAPIPath(path string) bool {
	return len(path) >= 5 && path[:5] == "/api/"
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.authenticated(r) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
