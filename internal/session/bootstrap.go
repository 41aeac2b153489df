package session

import (
	"context"
	"errors"
	"time"

	"moneytrack/internal/core"
	"moneytrack/internal/log"
)

// RevalidateTimeout bounds the startup session check so a slow backend never
// holds the app on the loading screen.
const RevalidateTimeout = 3 * time.Second

// Refresher is the one backend capability Bootstrap needs.
type Refresher interface {
	RefreshSession(ctx context.Context, refreshToken string) (core.Session, error)
}

// Bootstrap restores the session at startup. A fresh cached session is used
// as-is; a stale one is revalidated against the backend within
// RevalidateTimeout. Returns nil when nothing usable exists; the caller
// marks the check complete either way.
func Bootstrap(ctx context.Context, cache *Cache, auth Refresher, logger *log.Logger) (*core.Session, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentSession)
	}

	sess, fresh, err := cache.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fresh {
		logger.Debug("restored fresh session from cache", log.FieldUserID, sess.User.ID)
		return &sess, nil
	}
	if sess.RefreshToken == "" {
		return nil, nil
	}

	rctx, cancel := context.WithTimeout(ctx, RevalidateTimeout)
	defer cancel()

	renewed, err := auth.RefreshSession(rctx, sess.RefreshToken)
	if err != nil {
		logger.Warn("session revalidation failed", log.FieldError, err.Error())
		return nil, err
	}
	if err := cache.Save(ctx, renewed); err != nil {
		logger.Warn("failed to cache renewed session", log.FieldError, err.Error())
	}
	logger.Info("session revalidated", log.FieldUserID, renewed.User.ID)
	return &renewed, nil
}
