package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Remote backend
	BackendURL     string
	BackendAnonKey string

	// Local session cache
	SessionDBPath string

	// Auth
	AllowedEmails  []string // empty means any authenticated email
	OAuthRedirect  string
	SessionTimeout time.Duration // bound on the startup session check

	// AMQP refresh bus (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		BackendURL:     getEnv("BACKEND_URL", ""),
		BackendAnonKey: getEnv("BACKEND_ANON_KEY", ""),

		SessionDBPath: getEnv("SESSION_DB_PATH", "./data/session.db"),

		AllowedEmails:  splitList(getEnv("ALLOWED_EMAILS", "")),
		OAuthRedirect:  getEnv("OAUTH_REDIRECT_URL", ""),
		SessionTimeout: getEnvDuration("SESSION_CHECK_TIMEOUT", 3*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "moneytrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "refresh_events"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate backend URL
	if c.BackendURL == "" {
		errors = append(errors, "backend URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.BackendURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid backend URL '%s': %v", c.BackendURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid backend URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.BackendAnonKey == "" {
		errors = append(errors, "backend anon key cannot be empty")
	}

	// Validate session cache path
	if c.SessionDBPath == "" {
		errors = append(errors, "session database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SessionDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create session database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate allow-list entries
	for _, email := range c.AllowedEmails {
		if !strings.Contains(email, "@") {
			errors = append(errors, fmt.Sprintf("invalid allowed email '%s'", email))
		}
	}

	if c.SessionTimeout < 500*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid session check timeout %v: must be at least 500ms", c.SessionTimeout))
	} else if c.SessionTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session check timeout %v: must be at most 1 minute", c.SessionTimeout))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// EmailAllowed reports whether the allow-list admits the given email. An
// empty allow-list admits everyone.
func (c *Config) EmailAllowed(email string) bool {
	if len(c.AllowedEmails) == 0 {
		return true
	}
	for _, allowed := range c.AllowedEmails {
		if strings.EqualFold(allowed, email) {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
