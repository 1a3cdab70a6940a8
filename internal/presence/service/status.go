package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/metrics"
	"github.com/aussiebroadwan/presence/internal/presence/store"
)

// StatusController owns the signed-in user's status record. Writes are
// optimistic: the local record changes first and is rolled back if the store
// rejects the write.
type StatusController struct {
	env   Env
	users *store.Users

	// writeMu orders SetStatus against expiry reverts.
	writeMu sync.Mutex

	mu        sync.RWMutex
	current   domain.StatusRecord
	listeners []func(domain.StatusRecord)
}

func NewStatusController(env Env) *StatusController {
	env = env.withDefaults()
	return &StatusController{
		env:   env,
		users: env.Store.Users(),
		current: domain.StatusRecord{
			Status: domain.DefaultStatus,
		},
	}
}

// StatusOption selects the optional fields of a status write.
type StatusOption func(*statusRequest)

type statusRequest struct {
	message     *string
	expiresAt   *time.Time
	expirySet   bool
	clearExpiry bool
}

// WithMessage sets the free text message. An empty string clears it.
func WithMessage(msg string) StatusOption {
	return func(r *statusRequest) { r.message = &msg }
}

// WithExpiry schedules an automatic revert to the default status at t.
func WithExpiry(t time.Time) StatusOption {
	return func(r *statusRequest) {
		r.expiresAt = &t
		r.expirySet = true
		r.clearExpiry = false
	}
}

// WithoutExpiry removes any pending expiry.
func WithoutExpiry() StatusOption {
	return func(r *statusRequest) {
		r.expiresAt = nil
		r.expirySet = true
		r.clearExpiry = true
	}
}

// OnWrite registers fn to hear every record this controller wrote or
// received from the store. Register before Run.
func (c *StatusController) OnWrite(fn func(domain.StatusRecord)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Current returns the record as an observer sees it now.
func (c *StatusController) Current() domain.StatusRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Normalize(c.env.Clock.Now())
}

// Load reads the authoritative record from the store.
func (c *StatusController) Load(ctx context.Context) (domain.StatusRecord, error) {
	m, err := c.users.Get(ctx, c.env.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Current(), nil
		}
		return domain.StatusRecord{}, domain.Persistence("load status", store.UserPath(c.env.UserID), err)
	}
	c.reconcile(m.StatusRecord)
	return c.Current(), nil
}

// SetStatus writes status and, when the matching options are given, the
// message and expiry. Omitted fields keep their stored values.
func (c *StatusController) SetStatus(ctx context.Context, status domain.Status, opts ...StatusOption) error {
	if !status.Valid() {
		return domain.NewValidationError("status", "must be one of available, busy, meeting, away")
	}

	var req statusRequest
	for _, opt := range opts {
		opt(&req)
	}

	now := c.env.Clock.Now()
	if req.expirySet && !req.clearExpiry {
		if req.expiresAt == nil || req.expiresAt.IsZero() {
			return domain.NewValidationError("expiresAt", "required")
		}
		if !req.expiresAt.After(now) {
			return domain.NewValidationError("expiresAt", "must be in the future")
		}
	}

	patch := domain.StatusPatch{
		Status:      status,
		Message:     req.message,
		ExpiresAt:   req.expiresAt,
		ClearExpiry: req.clearExpiry,
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.write(ctx, patch, now)
}

// write applies patch optimistically and persists it. Callers hold writeMu.
func (c *StatusController) write(ctx context.Context, patch domain.StatusPatch, now time.Time) error {
	log := c.env.Logger

	c.mu.Lock()
	prev := c.current
	patch.UpdatedAt = now
	if patch.UpdatedAt.Before(prev.UpdatedAt) {
		patch.UpdatedAt = prev.UpdatedAt
	}
	// A passed expiry left on the record would instantly undo the new status.
	if !patch.ClearExpiry && patch.ExpiresAt == nil && prev.Expired(now) {
		patch.ClearExpiry = true
	}
	optimistic := patch.Apply(prev)
	c.current = optimistic
	c.mu.Unlock()

	if err := c.users.ApplyStatus(ctx, c.env.UserID, patch); err != nil {
		c.mu.Lock()
		if c.current.Equal(optimistic) {
			c.current = prev
		}
		c.mu.Unlock()

		c.env.Metrics.StatusWrite(metrics.ResultFailed)
		log.Error("status write failed",
			slog.String("status", string(patch.Status)),
			slog.Any("error", err),
		)
		return domain.Persistence("set status", store.UserPath(c.env.UserID), err)
	}

	c.env.Metrics.StatusWrite(metrics.ResultOK)
	log.Debug("status written",
		slog.String("status", string(patch.Status)),
		slog.Bool("expiry", optimistic.HasExpiry()),
	)
	c.notify(optimistic)
	return nil
}

// RevertExpired puts the record back to the default status if its expiry is
// still the one the timer was armed for and has passed. It reports whether a
// write happened. The message is kept.
func (c *StatusController) RevertExpired(ctx context.Context, armed time.Time) (bool, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	m, err := c.users.Get(ctx, c.env.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, domain.Persistence("revert status", store.UserPath(c.env.UserID), err)
	}

	now := c.env.Clock.Now()
	if !domain.SameInstant(m.ExpiresAt, &armed) || !m.Expired(now) {
		return false, nil
	}

	c.mu.Lock()
	c.current = m.StatusRecord
	c.mu.Unlock()

	err = c.write(ctx, domain.StatusPatch{
		Status:      domain.DefaultStatus,
		ClearExpiry: true,
	}, now)
	return err == nil, err
}

// Run keeps the local record in step with the store until ctx ends. Every
// delivery is passed to the write listeners, which is how an expiry set in an
// earlier session gets armed.
func (c *StatusController) Run(ctx context.Context) error {
	ctx, cancel := c.env.bind(ctx)
	defer cancel()

	sub, err := c.users.Watch(ctx, c.env.UserID)
	if err != nil {
		return domain.Persistence("watch status", store.UserPath(c.env.UserID), err)
	}
	defer sub.Close()

	for snap := range sub.Updates() {
		if !snap.Exists() {
			continue
		}
		m, err := store.DecodeMember(snap)
		if err != nil {
			c.env.Logger.Warn("own status record undecodable", slog.Any("error", err))
			continue
		}
		c.reconcile(m.StatusRecord)
	}
	return nil
}

func (c *StatusController) reconcile(rec domain.StatusRecord) {
	c.mu.Lock()
	c.current = rec
	c.mu.Unlock()
	c.notify(rec)
}

func (c *StatusController) notify(rec domain.StatusRecord) {
	c.mu.RLock()
	fns := append([]func(domain.StatusRecord){}, c.listeners...)
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(rec)
	}
}
