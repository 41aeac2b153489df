package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"moneytrack/internal/core"
)

// SignInWithPassword authenticates with email and password and returns the
// full session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (core.Session, error) {
	q := url.Values{}
	q.Set("grant_type", "password")

	body := map[string]string{"email": email, "password": password}

	var wire sessionWire
	if err := c.auth(ctx, "sign_in_password", http.MethodPost, "token", q, body, &wire, ""); err != nil {
		return core.Session{}, fmt.Errorf("sign in: %w", err)
	}
	return wire.toDomain(time.Now()), nil
}

// SignUp registers a new account. Depending on backend settings the returned
// session may be unconfirmed (empty access token) until the email is verified.
func (c *Client) SignUp(ctx context.Context, email, password string) (core.Session, error) {
	body := map[string]string{"email": email, "password": password}

	var wire sessionWire
	if err := c.auth(ctx, "sign_up", http.MethodPost, "signup", nil, body, &wire, ""); err != nil {
		return core.Session{}, fmt.Errorf("sign up: %w", err)
	}
	return wire.toDomain(time.Now()), nil
}

// GetSession resolves the user behind an access token.
func (c *Client) GetSession(ctx context.Context, accessToken string) (core.User, error) {
	var wire userWire
	if err := c.auth(ctx, "get_session", http.MethodGet, "user", nil, nil, &wire, accessToken); err != nil {
		return core.User{}, fmt.Errorf("get session: %w", err)
	}
	return core.User{
		ID:        wire.ID,
		Email:     wire.Email,
		Name:      wire.Metadata.FullName,
		AvatarURL: wire.Metadata.AvatarURL,
	}, nil
}

// RefreshSession trades a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (core.Session, error) {
	q := url.Values{}
	q.Set("grant_type", "refresh_token")

	body := map[string]string{"refresh_token": refreshToken}

	var wire sessionWire
	if err := c.auth(ctx, "refresh_session", http.MethodPost, "token", q, body, &wire, ""); err != nil {
		return core.Session{}, fmt.Errorf("refresh session: %w", err)
	}
	return wire.toDomain(time.Now()), nil
}

// ExchangeCode trades an OAuth authorization code for a session. Used by the
// callback route after the provider redirects back.
func (c *Client) ExchangeCode(ctx context.Context, code string) (core.Session, error) {
	q := url.Values{}
	q.Set("grant_type", "authorization_code")

	body := map[string]string{"auth_code": code}

	var wire sessionWire
	if err := c.auth(ctx, "exchange_code", http.MethodPost, "token", q, body, &wire, ""); err != nil {
		return core.Session{}, fmt.Errorf("exchange code: %w", err)
	}
	return wire.toDomain(time.Now()), nil
}

// SignOut revokes the session server-side. Clearing locally persisted keys is
// the session store's job; the two are always called together.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if err := c.auth(ctx, "sign_out", http.MethodPost, "logout", nil, nil, nil, accessToken); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// ResetPassword sends a password-recovery email with a redirect back into
// the app.
func (c *Client) ResetPassword(ctx context.Context, email, redirectTo string) error {
	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	body := map[string]string{"email": email}

	if err := c.auth(ctx, "reset_password", http.MethodPost, "recover", q, body, nil, ""); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// OAuthRedirectURL builds the provider authorize URL the browser is sent to
// for the OAuth flow.
func (c *Client) OAuthRedirectURL(provider, redirectTo string) string {
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.baseURL + "/auth/v1/authorize?" + q.Encode()
}
