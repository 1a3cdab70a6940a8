package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/clock"
	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/store"
	"github.com/aussiebroadwan/presence/pkg/identity"
)

// AccountService registers users: an identity account plus the initial
// presence record.
type AccountService struct {
	Identity *identity.Provider
	Store    *store.Tree
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Register signs up and writes the user's record with the default status.
// The returned session is signed in.
func (s *AccountService) Register(ctx context.Context, email, password string) (*identity.Session, error) {
	if strings.TrimSpace(email) == "" {
		return nil, domain.NewValidationError("email", "required")
	}
	if password == "" {
		return nil, domain.NewValidationError("password", "required")
	}

	session, err := s.Identity.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	principal, _ := session.Current()
	member := domain.NewMember(principal.UID, principal.Email, s.now())
	if err := s.Store.Users().Create(ctx, member); err != nil {
		s.logger().Error("initial user record write failed",
			slog.String("user_id", principal.UID),
			slog.Any("error", err),
		)
		return nil, domain.Persistence("create user", store.UserPath(principal.UID), err)
	}
	return session, nil
}

// EnsureRecord writes the initial record for a signed-in user that has none,
// e.g. when the first write failed at registration.
func (s *AccountService) EnsureRecord(ctx context.Context, principal identity.Principal) error {
	_, err := s.Store.Users().Get(ctx, principal.UID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Persistence("get user", store.UserPath(principal.UID), err)
	}
	member := domain.NewMember(principal.UID, principal.Email, s.now())
	if err := s.Store.Users().Create(ctx, member); err != nil {
		return domain.Persistence("create user", store.UserPath(principal.UID), err)
	}
	return nil
}

func (s *AccountService) now() time.Time {
	if s.Clock == nil {
		return clock.System().Now()
	}
	return s.Clock.Now()
}

func (s *AccountService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
