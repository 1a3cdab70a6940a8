package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/clock"
	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/metrics"
)

// RevertFunc reverts the record if its expiry is still armed, reporting
// whether it wrote.
type RevertFunc func(ctx context.Context, armed time.Time) (bool, error)

// ExpiryScheduler holds at most one pending timer for a user's status expiry.
// Every observed record either disarms it (no expiry), keeps it (same
// instant) or replaces it.
type ExpiryScheduler struct {
	clock   clock.Clock
	revert  RevertFunc
	log     *slog.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	timer clock.Timer
	at    *time.Time
	seq   uint64
}

func NewExpiryScheduler(env Env, revert RevertFunc) *ExpiryScheduler {
	env = env.withDefaults()
	ctx, cancel := context.WithCancel(context.WithoutCancel(env.Scope))
	s := &ExpiryScheduler{
		clock:   env.Clock,
		revert:  revert,
		log:     env.Logger,
		metrics: env.Metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
	context.AfterFunc(env.Scope, s.Stop)
	return s
}

// Observe arms, re-arms or disarms the timer for rec. An expiry already in
// the past fires straight away.
func (s *ExpiryScheduler) Observe(rec domain.StatusRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	if rec.ExpiresAt == nil {
		s.disarmLocked()
		return
	}
	if s.timer != nil && domain.SameInstant(s.at, rec.ExpiresAt) {
		return
	}

	s.disarmLocked()

	at := *rec.ExpiresAt
	s.seq++
	seq := s.seq
	d := max(at.Sub(s.clock.Now()), 0)

	s.at = &at
	s.timer = s.clock.AfterFunc(d, func() { s.fire(seq, at) })
	s.metrics.ExpiryArmed(1)
	s.log.Debug("expiry armed", slog.Time("expires_at", at), slog.Duration("in", d))
}

// ArmedAt returns the pending wake time, if any.
func (s *ExpiryScheduler) ArmedAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return time.Time{}, false
	}
	return *s.at, true
}

// Stop cancels the pending timer and any revert in flight. Later Observe
// calls are ignored.
func (s *ExpiryScheduler) Stop() {
	s.cancel()
	s.mu.Lock()
	s.disarmLocked()
	s.mu.Unlock()
}

func (s *ExpiryScheduler) disarmLocked() {
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
		s.metrics.ExpiryArmed(-1)
	}
	s.at = nil
}

func (s *ExpiryScheduler) fire(seq uint64, at time.Time) {
	s.mu.Lock()
	if seq != s.seq || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.at = nil
	s.metrics.ExpiryArmed(-1)
	ctx := s.ctx
	s.mu.Unlock()

	reverted, err := s.revert(ctx, at)
	switch {
	case err != nil:
		s.metrics.ExpiryRevert(metrics.ResultFailed)
		s.log.Error("expiry revert failed", slog.Time("expires_at", at), slog.Any("error", err))
	case reverted:
		s.metrics.ExpiryRevert(metrics.ResultReverted)
		s.log.Info("status expired", slog.Time("expires_at", at))
	default:
		s.metrics.ExpiryRevert(metrics.ResultAborted)
		s.log.Debug("expiry revert aborted, record changed since arming", slog.Time("expires_at", at))
	}
}
