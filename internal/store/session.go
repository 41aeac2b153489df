package store

import (
	"context"

	"moneytrack/internal/core"
	"moneytrack/internal/gateway"
	"moneytrack/internal/log"
)

// SessionState is a point-in-time snapshot of the session slice.
// Initialized flips once the first session check completes, successful or
// not, so the UI can stop showing the startup spinner.
type SessionState struct {
	Phase       Phase
	Session     *core.Session
	Initialized bool
	Err         string
}

type sessionSlice struct {
	phase       Phase
	session     *core.Session
	initialized bool
	err         string
}

func (s *Store) Session() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := SessionState{
		Phase:       s.session.phase,
		Initialized: s.session.initialized,
		Err:         s.session.err,
	}
	if s.session.session != nil {
		sess := *s.session.session
		out.Session = &sess
	}
	return out
}

// AccessToken implements gateway.TokenProvider against the session slice.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.session == nil {
		return ""
	}
	return s.session.session.AccessToken
}

// SetSession installs a session obtained out of band (bootstrap from the
// local cache, or the OAuth callback) and notifies auth subscribers.
func (s *Store) SetSession(sess *core.Session) {
	s.mu.Lock()
	s.session.session = sess
	s.session.phase = PhaseReady
	s.session.initialized = true
	if sess == nil {
		s.session.phase = PhaseIdle
	}
	hook := s.hooks.OnAuthChange
	s.mu.Unlock()

	if hook != nil {
		hook(sess != nil)
	}
}

// SignIn authenticates with password credentials and installs the session.
func (s *Store) SignIn(ctx context.Context, email, password string) (core.Session, error) {
	s.mu.Lock()
	s.session.phase = PhaseLoading
	s.session.err = ""
	s.mu.Unlock()

	sess, err := s.gw.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.mu.Lock()
		s.session.phase = PhaseFailed
		s.session.err = err.Error()
		s.session.initialized = true
		s.mu.Unlock()
		return core.Session{}, err
	}

	s.SetSession(&sess)
	s.logger.InfoContext(ctx, "user signed in", log.FieldUserID, sess.User.ID)
	return sess, nil
}

// SignUp registers a new account. Backends configured for email
// confirmation return a session without tokens until the link is clicked.
func (s *Store) SignUp(ctx context.Context, email, password string) (core.Session, error) {
	s.mu.Lock()
	s.session.phase = PhaseLoading
	s.session.err = ""
	s.mu.Unlock()

	sess, err := s.gw.SignUp(ctx, email, password)
	if err != nil {
		s.mu.Lock()
		s.session.phase = PhaseFailed
		s.session.err = err.Error()
		s.session.initialized = true
		s.mu.Unlock()
		return core.Session{}, err
	}

	if sess.AccessToken != "" {
		s.SetSession(&sess)
	}
	return sess, nil
}

// ExchangeOAuthCode completes the OAuth flow and installs the session.
func (s *Store) ExchangeOAuthCode(ctx context.Context, code string) (core.Session, error) {
	sess, err := s.gw.ExchangeCode(ctx, code)
	if err != nil {
		s.mu.Lock()
		s.session.err = err.Error()
		s.session.initialized = true
		s.mu.Unlock()
		return core.Session{}, err
	}
	s.SetSession(&sess)
	return sess, nil
}

// ResetPassword asks the backend to send a recovery email.
func (s *Store) ResetPassword(ctx context.Context, email, redirectTo string) error {
	return s.gw.ResetPassword(ctx, email, redirectTo)
}

// SignOut revokes the session remotely, then clears every slice. The remote
// failure is logged but does not keep the local state signed in.
func (s *Store) SignOut(ctx context.Context) error {
	token := s.AccessToken()

	var err error
	if token != "" {
		err = s.gw.SignOut(ctx, token)
		if err != nil {
			s.logger.WarnContext(ctx, "remote sign-out failed", log.FieldError, err.Error())
		}
	}

	s.SetSession(nil)
	s.ClearTransactions()

	s.mu.Lock()
	s.cats = categorySlice{}
	s.cards = creditCardSlice{}
	s.mu.Unlock()

	return err
}

// Revalidate refreshes the session from its refresh token, e.g. when the
// cached copy is within the freshness margin of expiring.
func (s *Store) Revalidate(ctx context.Context) (core.Session, error) {
	s.mu.Lock()
	current := s.session.session
	s.mu.Unlock()

	if current == nil || current.RefreshToken == "" {
		return core.Session{}, gateway.ErrUnauthorized
	}

	sess, err := s.gw.RefreshSession(ctx, current.RefreshToken)
	if err != nil {
		s.mu.Lock()
		s.session.err = err.Error()
		s.session.initialized = true
		s.mu.Unlock()
		return core.Session{}, err
	}

	s.SetSession(&sess)
	return sess, nil
}
