package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/store"
)

// HousekeepingService periodically drops expired password reset tokens and
// session revocations so those collections do not grow without bound.
type HousekeepingService struct {
	Accounts *store.Accounts
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(accounts *store.Accounts, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Accounts: accounts,
		Logger:   logger,
		Interval: interval,
		Now:      func() time.Time { return time.Now().UTC() },
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	n, err := s.Accounts.PurgeExpired(context.Background(), s.Now())
	if err != nil {
		s.Logger.Error("failed to purge expired credentials", "error", err)
		return
	}
	s.Logger.Info("housekeeping cleanup completed", "purged", n)
}
