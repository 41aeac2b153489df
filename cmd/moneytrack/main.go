package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneytrack/internal/bus"
	"moneytrack/internal/config"
	"moneytrack/internal/filter"
	"moneytrack/internal/gateway"
	apphttp "moneytrack/internal/http"
	"moneytrack/internal/log"
	"moneytrack/internal/metrics"
	"moneytrack/internal/session"
	"moneytrack/internal/store"
)

// storeTokens bridges the store's session slice into the gateway's token
// provider; the indirection breaks the construction cycle between the two.
type storeTokens struct {
	st *store.Store
}

func (t *storeTokens) AccessToken() string {
	if t.st == nil {
		return ""
	}
	return t.st.AccessToken()
}

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", log.FieldError, err.Error())
		os.Exit(1)
	}

	tokens := &storeTokens{}
	gw, err := gateway.New(gateway.Config{
		BaseURL: cfg.BackendURL,
		AnonKey: cfg.BackendAnonKey,
		Tokens:  tokens,
	})
	if err != nil {
		logger.Error("failed to build backend client", log.FieldError, err.Error())
		os.Exit(1)
	}

	cache, err := session.Open(cfg.SessionDBPath, logger.WithComponent(log.ComponentSession))
	if err != nil {
		logger.Error("failed to open session cache", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer cache.Close()

	filters := filter.New(time.Local)

	// Optional refresh bus. Publishing happens through the mutation hook;
	// consumed events bump the filter refresh counter.
	var busClient *bus.Client
	if cfg.AMQPURL != "" {
		busClient, err = bus.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(log.ComponentBus))
		if err != nil {
			logger.Error("failed to connect to AMQP", log.FieldError, err.Error())
			os.Exit(1)
		}
		defer busClient.Close()
	}

	var st *store.Store
	hooks := store.Hooks{
		OnMutation: func(entity string) {
			filters.Refresh()
			if busClient == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			userID := ""
			if sess := st.Session().Session; sess != nil {
				userID = sess.User.ID
			}
			if err := busClient.PublishRefresh(ctx, entity, userID); err != nil {
				logger.Warn("failed to publish refresh event",
					log.FieldEntity, entity, log.FieldError, err.Error())
			}
		},
	}
	st = store.New(gw, hooks, logger.WithComponent(log.ComponentStore))
	tokens.st = st

	// Restore the previous session before serving; a dead backend only costs
	// the bounded revalidation timeout.
	bootCtx, bootCancel := context.WithTimeout(context.Background(), cfg.SessionTimeout+time.Second)
	if sess, err := session.Bootstrap(bootCtx, cache, gw, logger.WithComponent(log.ComponentSession)); err != nil {
		logger.Warn("session bootstrap failed, starting signed out", log.FieldError, err.Error())
	} else if sess != nil {
		st.SetSession(sess)
	}
	bootCancel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if busClient != nil {
		go func() {
			err := busClient.ConsumeRefresh(ctx, func(msg *bus.RefreshMessage) error {
				metrics.RefreshEvents.Inc()
				filters.Refresh()
				logger.Debug("refresh event consumed", log.FieldEntity, msg.Entity)
				return nil
			})
			if err != nil && ctx.Err() == nil {
				logger.Error("refresh consumer stopped", log.FieldError, err.Error())
			}
		}()
	}

	srv := apphttp.NewServer(cfg, st, cache, filters, logger.WithComponent(log.ComponentHTTP))
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", log.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("starting moneytrack server",
		"port", cfg.Port,
		"backend", cfg.BackendURL,
		"bus_enabled", busClient != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}
