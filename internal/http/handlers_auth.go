package http

import (
	"net/http"

	"moneytrack/internal/core"
	"moneytrack/internal/log"
)

func (s *Server) setSessionCookie(w http.ResponseWriter, sess core.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.AccessToken,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) persistSession(r *http.Request, sess core.Session) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(r.Context(), sess); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(),
			"failed to persist session", log.FieldError, err.Error())
	}
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "email and password are required")
		return
	}

	sess, err := s.store.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	s.setSessionCookie(w, sess)
	s.persistSession(r, sess)
	writeJSON(w, http.StatusOK, toSessionJSON(sess))
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "email and password are required")
		return
	}

	sess, err := s.store.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	// No tokens means the backend wants email confirmation first.
	if sess.AccessToken == "" {
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "confirmation_required",
			"email":  req.Email,
		})
		return
	}

	s.setSessionCookie(w, sess)
	s.persistSession(r, sess)
	writeJSON(w, http.StatusCreated, toSessionJSON(sess))
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.store.SignOut(r.Context()); err != nil {
		// Remote revocation failure still signs out locally; just log it.
		log.FromContext(r.Context()).WarnContext(r.Context(),
			"sign-out completed with remote error", log.FieldError, err.Error())
	}
	if s.cache != nil {
		if err := s.cache.Clear(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(),
				"failed to clear session cache", log.FieldError, err.Error())
		}
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Revalidate(r.Context())
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	s.setSessionCookie(w, sess)
	s.persistSession(r, sess)
	writeJSON(w, http.StatusOK, toSessionJSON(sess))
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "email is required")
		return
	}

	if err := s.store.ResetPassword(r.Context(), req.Email, s.cfg.OAuthRedirect); err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recovery_email_sent"})
}

// handleOAuthCallback finishes the provider flow: exchange the code, check
// the allow-list, and land on the dashboard.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" || r.URL.Query().Get("error") != "" {
		http.Redirect(w, r, "/login?error=auth_error", http.StatusFound)
		return
	}

	ctx, cancel := contextWithTimeout(r, s.cfg.SessionTimeout)
	defer cancel()

	sess, err := s.store.ExchangeOAuthCode(ctx, code)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(),
			"code exchange failed", log.FieldError, err.Error())
		http.Redirect(w, r, "/login?error=auth_error", http.StatusFound)
		return
	}

	if !s.cfg.EmailAllowed(sess.User.Email) {
		log.FromContext(r.Context()).WarnContext(r.Context(),
			"sign-in rejected by allow-list", "email", sess.User.Email)
		_ = s.store.SignOut(r.Context())
		s.clearSessionCookie(w)
		http.Redirect(w, r, "/login?error=email_not_allowed", http.StatusFound)
		return
	}

	s.setSessionCookie(w, sess)
	s.persistSession(r, sess)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"page":  "login",
		"error": r.URL.Query().Get("error"),
	})
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"page": "signup"})
}
