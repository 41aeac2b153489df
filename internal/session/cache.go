// Package session persists the last-known authenticated session in a local
// SQLite key-value cache so restarts do not force a fresh sign-in. Entries
// live under an auth namespace prefix; Clear wipes the whole namespace.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"moneytrack/internal/core"
	"moneytrack/internal/log"

	_ "modernc.org/sqlite"
)

// FreshnessMargin is how much remaining token lifetime counts as fresh. A
// session closer than this to expiry is revalidated before use.
const FreshnessMargin = 5 * time.Minute

const (
	authPrefix = "auth."
	sessionKey = authPrefix + "session"
	userKey    = "user"
)

var ErrNoSession = errors.New("no cached session")

type Cache struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

func Open(dbPath string, logger *log.Logger) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentSession)
	}
	return &Cache{db: db, logger: logger, now: time.Now}, nil
}

func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Save stores the session under the auth namespace and the user profile
// under its own key.
func (c *Cache) Save(ctx context.Context, sess core.Session) error {
	sessJSON, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for key, value := range map[string]string{
		sessionKey: string(sessJSON),
		userKey:    string(userJSON),
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
			key, value); err != nil {
			return fmt.Errorf("store %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	c.logger.Debug("session cached", log.FieldUserID, sess.User.ID)
	return nil
}

// Load returns the cached session and whether it is still fresh: fresh means
// the access token has more than FreshnessMargin of lifetime left. A stale
// session is still returned so the caller can revalidate with its refresh
// token. Missing cache entries return ErrNoSession.
func (c *Cache) Load(ctx context.Context) (core.Session, bool, error) {
	var raw string
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, sessionKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, false, ErrNoSession
	}
	if err != nil {
		return core.Session{}, false, fmt.Errorf("load session: %w", err)
	}

	var sess core.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// Corrupt entry: treat as absent rather than poisoning every start.
		c.logger.Warn("discarding corrupt cached session", log.FieldError, err.Error())
		return core.Session{}, false, ErrNoSession
	}

	return sess, sess.FreshFor(FreshnessMargin, c.now()), nil
}

// Clear removes the user profile and every key under the auth namespace.
func (c *Cache) Clear(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM kv WHERE key = ? OR key LIKE ? || '%'`, userKey, authPrefix)
	if err != nil {
		return fmt.Errorf("clear session cache: %w", err)
	}
	c.logger.Debug("session cache cleared")
	return nil
}
