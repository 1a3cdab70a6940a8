package service

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/presence/internal/presence/clock"
	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/metrics"
	"github.com/aussiebroadwan/presence/internal/presence/store"
)

// Env is what every per-user service is built from.
type Env struct {
	Store   *store.Tree
	UserID  string
	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Scope bounds every subscription opened through the services. When it
	// is cancelled all of them are released.
	Scope context.Context
}

func (e Env) withDefaults() Env {
	if e.Clock == nil {
		e.Clock = clock.System()
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	if e.Scope == nil {
		e.Scope = context.Background()
	}
	e.Logger = e.Logger.With(slog.String("user_id", e.UserID))
	return e
}

// Validate reports ErrAuthRequired when no user is attached.
func (e Env) Validate() error {
	if e.UserID == "" {
		return domain.ErrAuthRequired
	}
	if e.Store == nil {
		return domain.Persistence("open", "", store.ErrClosed)
	}
	return nil
}

// bind derives a context that ends when either ctx or scope ends.
func (e Env) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.Scope, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
