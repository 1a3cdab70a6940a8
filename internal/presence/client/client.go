// Package client builds the per-user object a presentation layer talks to.
// One Client exists per signed-in user; it owns every subscription and timer
// opened on that user's behalf and releases them on Close or sign-out.
package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/presence/internal/presence/clock"
	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/metrics"
	"github.com/aussiebroadwan/presence/internal/presence/service"
	"github.com/aussiebroadwan/presence/internal/presence/store"
	"github.com/aussiebroadwan/presence/pkg/identity"
)

type Deps struct {
	Store      *store.Tree
	Session    *identity.Session
	Clock      clock.Clock
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	CodePrefix string
}

type Client struct {
	Status        *service.StatusController
	Expiry        *service.ExpiryScheduler
	Observer      *service.PresenceObserver
	Notifications *service.NotificationCenter
	Teams         *service.TeamMembership

	principal identity.Principal
	log       *slog.Logger

	cancel    context.CancelFunc
	runDone   chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	stopSession func()
}

// New checks the session, then builds the services in dependency order and
// starts watching the user's own record. ctx bounds only construction.
func New(ctx context.Context, deps Deps) (*Client, error) {
	if deps.Session == nil {
		return nil, domain.ErrAuthRequired
	}
	principal, ok := deps.Session.Current()
	if !ok {
		return nil, domain.ErrAuthRequired
	}
	if deps.Store == nil {
		return nil, errors.New("client: store is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	scope, cancel := context.WithCancel(context.WithoutCancel(ctx))
	env := service.Env{
		Store:   deps.Store,
		UserID:  principal.UID,
		Clock:   deps.Clock,
		Logger:  deps.Logger,
		Metrics: deps.Metrics,
		Scope:   scope,
	}
	if err := env.Validate(); err != nil {
		cancel()
		return nil, err
	}

	c := &Client{
		principal: principal,
		log:       deps.Logger.With(slog.String("user_id", principal.UID)),
		cancel:    cancel,
		runDone:   make(chan struct{}),
		done:      make(chan struct{}),
	}

	c.Status = service.NewStatusController(env)
	c.Expiry = service.NewExpiryScheduler(env, c.Status.RevertExpired)
	c.Status.OnWrite(c.Expiry.Observe)
	if _, err := c.Status.Load(ctx); err != nil {
		c.Expiry.Stop()
		cancel()
		return nil, err
	}

	c.Observer = service.NewPresenceObserver(env)
	c.Notifications = service.NewNotificationCenter(env)
	c.Teams = service.NewTeamMembership(env, deps.CodePrefix)

	go func() {
		defer close(c.runDone)
		if err := c.Status.Run(scope); err != nil {
			c.log.Error("own status watch stopped", slog.Any("error", err))
		}
	}()

	stop := deps.Session.OnChange(func(p *identity.Principal) {
		if p == nil {
			c.Close()
		}
	})
	c.mu.Lock()
	c.stopSession = stop
	c.mu.Unlock()
	// The session may have ended while we were building.
	if _, ok := deps.Session.Current(); !ok {
		c.Close()
		return nil, domain.ErrAuthRequired
	}

	c.log.Debug("client opened")
	return c, nil
}

// Principal is the signed-in identity this client acts for.
func (c *Client) Principal() identity.Principal { return c.principal }

// Done is closed once the client has been torn down.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close cancels every subscription opened through the client and the pending
// expiry timer. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.Expiry.Stop()
		<-c.runDone

		c.mu.Lock()
		stop := c.stopSession
		c.mu.Unlock()
		if stop != nil {
			stop()
		}
		close(c.done)
		c.log.Debug("client closed")
	})
}
