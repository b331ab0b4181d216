// Package app assembles the console from configuration and runs it until
// its context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ledgerdesk/admin-console/internal/api"
	"github.com/ledgerdesk/admin-console/internal/api/handler"
	"github.com/ledgerdesk/admin-console/internal/console"
	"github.com/ledgerdesk/admin-console/internal/core/ports"
	"github.com/ledgerdesk/admin-console/internal/core/service"
	"github.com/ledgerdesk/admin-console/internal/infrastructure/config"
	mongodb "github.com/ledgerdesk/admin-console/internal/infrastructure/db/mongo"
	redisdb "github.com/ledgerdesk/admin-console/internal/infrastructure/db/redis"
	"github.com/ledgerdesk/admin-console/internal/infrastructure/memory"
	"github.com/ledgerdesk/admin-console/internal/infrastructure/queue"
	"github.com/ledgerdesk/admin-console/internal/infrastructure/restapi"
)

type App struct {
	cfg *config.Config
	log zerolog.Logger

	echo       *echo.Echo
	workspaces *console.Registry
	dispatcher *queue.Dispatcher
	mongo      *mongo.Client
	redis      *goredis.Client
}

// New connects the optional backing stores and wires every component.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	var checks []handler.Check

	var sessions ports.SessionStore
	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		a.redis = rdb
		store := redisdb.NewSessionStore(rdb, cfg.Session.TTL)
		sessions = store
		checks = append(checks, handler.Check{Name: "redis", Ping: store.Ping})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("sessions stored in redis")
	} else {
		store := memory.NewSessionStore(cfg.Session.TTL)
		sessions = store
		checks = append(checks, handler.Check{Name: "sessions", Ping: store.Ping})
		log.Warn().Msg("REDIS_ADDR not set, sessions kept in memory")
	}

	var auditor ports.Auditor = ports.NopAuditor{}
	if cfg.Mongo.URI != "" {
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			a.close(context.Background())
			return nil, err
		}
		a.mongo = client
		repo := mongodb.NewAuditRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("audit indexes")
		}
		a.dispatcher = queue.NewDispatcher(cfg.Mongo.Workers, repo, log)
		auditor = a.dispatcher
		checks = append(checks, handler.Check{Name: "mongodb", Ping: func(ctx context.Context) error {
			return mongodb.Ping(ctx, db)
		}})
		log.Info().Str("database", cfg.Mongo.Database).Msg("audit trail enabled")
	}

	remote := restapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, log)
	checks = append(checks, handler.Check{Name: "remote_api", Ping: remote.Ping})

	a.workspaces = console.NewRegistry(remote, remote, auditor, console.Options{
		Quiet: cfg.Console.DebounceQuiet,
		Idle:  cfg.Console.WorkspaceIdle,
	}, log)

	auth := service.NewAuthService(remote, sessions, a.workspaces, auditor, service.AuthOptions{
		DefaultTimezone: cfg.Console.DefaultTimezone,
		RedirectDelay:   cfg.Console.RedirectDelay,
	}, log)

	e, err := api.NewRouter(api.Deps{
		Auth:            auth,
		Sessions:        sessions,
		Workspaces:      a.workspaces,
		Cookie:          handler.CookieConfig{Name: cfg.Session.Cookie, Secure: cfg.Session.Secure, TTL: cfg.Session.TTL},
		DefaultTimezone: cfg.Console.DefaultTimezone,
		RenderWait:      cfg.Console.RenderWait,
		Readiness:       checks,
		Log:             log,
	})
	if err != nil {
		a.close(context.Background())
		return nil, err
	}
	a.echo = e
	return a, nil
}

// Run serves HTTP until ctx is done, then shuts down in order: the listener,
// the workspaces, the audit queue, the stores.
func (a *App) Run(ctx context.Context) error {
	bg, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	if a.dispatcher != nil {
		a.dispatcher.Start(bg)
	}
	go a.workspaces.Run(bg)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + a.cfg.Port
		a.log.Info().Str("addr", addr).Str("api", a.cfg.API.BaseURL).Msg("console listening")
		errCh <- a.echo.Start(addr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server exited: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.echo.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown server: %w", err)
	}
	a.workspaces.Shutdown()
	a.close(shutdownCtx)
	stopBackground()

	a.log.Info().Msg("console stopped")
	return runErr
}

func (a *App) close(ctx context.Context) {
	if a.dispatcher != nil {
		if err := a.dispatcher.Shutdown(ctx); err != nil {
			a.log.Warn().Err(err).Msg("audit queue not drained")
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("mongo disconnect")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close")
		}
	}
}
