package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/client"
	"github.com/aussiebroadwan/presence/internal/presence/clock"
	httpapi "github.com/aussiebroadwan/presence/internal/presence/http"
	"github.com/aussiebroadwan/presence/internal/presence/metrics"
	"github.com/aussiebroadwan/presence/internal/presence/service"
	"github.com/aussiebroadwan/presence/internal/presence/store"
	"github.com/aussiebroadwan/presence/internal/presence/store/drivers/memory"
	"github.com/aussiebroadwan/presence/internal/presence/store/drivers/postgres"
	"github.com/aussiebroadwan/presence/internal/presence/store/drivers/sqlite"
	"github.com/aussiebroadwan/presence/pkg/cryptox"
	"github.com/aussiebroadwan/presence/pkg/identity"
	"github.com/aussiebroadwan/presence/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the store, identity provider, per-user clients and the
// HTTP gateway together.
type Application struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	tree     *store.Tree
	provider *identity.Provider
	accounts *service.AccountService
	pool     *httpapi.ClientPool

	housekeepingService *service.HousekeepingService
	housekeepingRunning bool

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "presence",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)
	if err := cryptox.LoadPepper(); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.tree.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler is the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()
	app.housekeepingRunning = true

	app.logger.Info("presence service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store", app.cfg.StoreDriver,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops accepting requests, closes every user's client and then
// the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down presence service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Streams are hijacked and not tracked by Shutdown; closing the pool
	// ends them.
	app.pool.Close()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingRunning {
		app.housekeepingService.Stop()
		app.housekeepingRunning = false
	}

	if err := app.tree.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("presence service stopped")
	return nil
}

// initStore opens the configured backend. sqlite and postgres apply their
// migrations on open.
func (app *Application) initStore() error {
	opts := []store.Option{
		store.WithLogger(app.logger),
		store.WithObserver(app.metrics),
	}

	switch app.cfg.StoreDriver {
	case DriverMemory:
		app.tree = memory.NewStore(opts...)
		app.logger.Warn("using in-memory store, data is lost on restart")

	case DriverSQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		tree, err := sqlite.NewStore(dsn, opts...)
		if err != nil {
			return fmt.Errorf("failed to initialize sqlite store: %w", err)
		}
		app.tree = tree

	case DriverPostgres:
		if app.cfg.DatabaseURL == "" {
			return errors.New("PRESENCE_DATABASE_URL is required for the postgres driver")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		tree, err := postgres.NewStore(ctx, app.cfg.DatabaseURL, opts...)
		if err != nil {
			return fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		app.tree = tree

	default:
		return fmt.Errorf("unknown store driver %q", app.cfg.StoreDriver)
	}

	app.logger.Info("store ready", "driver", app.cfg.StoreDriver)
	return nil
}

func (app *Application) initServices() error {
	secret := app.cfg.SessionSecret
	if secret == "" {
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return fmt.Errorf("failed to generate session secret: %w", err)
		}
		secret = generated
		app.logger.Warn("PRESENCE_SESSION_SECRET not set, sessions will not survive a restart")
	}

	provider, err := identity.NewProvider(app.tree.Accounts(), identity.Config{
		Secret:     []byte(secret),
		SessionTTL: app.cfg.SessionTTL,
		ResetTTL:   app.cfg.ResetTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize identity provider: %w", err)
	}
	app.provider = provider

	app.accounts = &service.AccountService{
		Identity: provider,
		Store:    app.tree,
		Clock:    clock.System(),
		Logger:   app.logger,
	}

	app.pool = httpapi.NewClientPool(provider, app.accounts, client.Deps{
		Store:      app.tree,
		Clock:      clock.System(),
		Logger:     app.logger,
		Metrics:    app.metrics,
		CodePrefix: app.cfg.TeamCodePrefix,
	})

	app.housekeepingService = service.NewHousekeepingService(
		app.tree.Accounts(),
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.tree,
		app.provider,
		app.accounts,
		app.pool,
		app.metrics,
		app.logger,
	)
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
