package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/store"
)

// PresenceObserver builds live views of the signed-in user's teammates.
// Records are normalized at delivery, so a passed expiry always shows as the
// default status.
type PresenceObserver struct {
	env   Env
	users *store.Users
}

func NewPresenceObserver(env Env) *PresenceObserver {
	env = env.withDefaults()
	return &PresenceObserver{env: env, users: env.Store.Users()}
}

// ObserveTeam delivers the members sharing the caller's team code, excluding
// the caller, in store order. A caller without a team sees an empty list.
func (o *PresenceObserver) ObserveTeam(ctx context.Context) (*Feed[[]domain.Member], error) {
	ctx, cancel := o.env.bind(ctx)
	sub, err := o.users.WatchAll(ctx)
	if err != nil {
		cancel()
		return nil, domain.Persistence("observe team", "users", err)
	}

	return newFeed(sub, o.env.Clock, feedSpec[[]domain.Member]{
		transform: func(last []domain.Member, delivered bool, snap store.Snapshot) ([]domain.Member, bool) {
			team := o.teamOf(snap)
			if delivered && membersEqual(last, team) {
				return nil, false
			}
			return team, true
		},
		wake: func(snap store.Snapshot) (time.Time, bool) {
			members, _ := store.DecodeMembers(snap)
			now := o.env.Clock.Now()
			return nextExpiry(o.teammates(members, now), now)
		},
	}, cancel), nil
}

// ObserveMember delivers one member's record, nil while it does not exist.
func (o *PresenceObserver) ObserveMember(ctx context.Context, memberID string) (*Feed[*domain.Member], error) {
	if err := store.ValidateKey(memberID); err != nil {
		return nil, domain.NewValidationError("memberId", "invalid")
	}

	ctx, cancel := o.env.bind(ctx)
	sub, err := o.users.Watch(ctx, memberID)
	if err != nil {
		cancel()
		return nil, domain.Persistence("observe member", store.UserPath(memberID), err)
	}

	return newFeed(sub, o.env.Clock, feedSpec[*domain.Member]{
		transform: func(last *domain.Member, delivered bool, snap store.Snapshot) (*domain.Member, bool) {
			var cur *domain.Member
			if snap.Exists() {
				m, err := store.DecodeMember(snap)
				if err != nil {
					o.env.Logger.Warn("member record undecodable",
						slog.String("member_id", memberID),
						slog.Any("error", err),
					)
					return nil, false
				}
				m.StatusRecord = m.Normalize(o.env.Clock.Now())
				cur = &m
			}
			if delivered && memberPtrEqual(last, cur) {
				return nil, false
			}
			return cur, true
		},
		wake: func(snap store.Snapshot) (time.Time, bool) {
			m, err := store.DecodeMember(snap)
			if err != nil {
				return time.Time{}, false
			}
			return nextExpiry([]domain.Member{m}, o.env.Clock.Now())
		},
	}, cancel), nil
}

// Members reads the current team view once.
func (o *PresenceObserver) Members(ctx context.Context) ([]domain.Member, error) {
	snap, err := o.env.Store.Read(ctx, "users")
	if err != nil {
		return nil, domain.Persistence("list members", "users", err)
	}
	return o.teamOf(snap), nil
}

// Member reads one member's normalized record.
func (o *PresenceObserver) Member(ctx context.Context, memberID string) (domain.Member, error) {
	if err := store.ValidateKey(memberID); err != nil {
		return domain.Member{}, domain.NewValidationError("memberId", "invalid")
	}

	m, err := o.users.Get(ctx, memberID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	if err != nil {
		return domain.Member{}, domain.Persistence("get member", store.UserPath(memberID), err)
	}
	m.StatusRecord = m.Normalize(o.env.Clock.Now())
	return m, nil
}

// teamOf picks the caller's teammates out of a users snapshot. The caller's
// team code is read from the same snapshot so both sides agree.
func (o *PresenceObserver) teamOf(snap store.Snapshot) []domain.Member {
	members, err := store.DecodeMembers(snap)
	if err != nil {
		o.env.Logger.Warn("skipped undecodable member records", slog.Any("error", err))
	}
	return o.teammates(members, o.env.Clock.Now())
}

// teammates keeps the members sharing the caller's team, caller excluded,
// normalized at now.
func (o *PresenceObserver) teammates(members []domain.Member, now time.Time) []domain.Member {
	var code string
	for _, m := range members {
		if m.ID == o.env.UserID {
			code = m.TeamCode
			break
		}
	}

	out := make([]domain.Member, 0)
	if code == "" {
		return out
	}

	for _, m := range members {
		if m.ID == o.env.UserID || m.TeamCode != code {
			continue
		}
		m.StatusRecord = m.Normalize(now)
		out = append(out, m)
	}
	return out
}

// nextExpiry returns the earliest expiry still ahead of now.
func nextExpiry(members []domain.Member, now time.Time) (time.Time, bool) {
	var (
		next time.Time
		ok   bool
	)
	for _, m := range members {
		if m.ExpiresAt == nil || !m.ExpiresAt.After(now) {
			continue
		}
		if !ok || m.ExpiresAt.Before(next) {
			next, ok = *m.ExpiresAt, true
		}
	}
	return next, ok
}

func membersEqual(a, b []domain.Member) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !memberEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func memberPtrEqual(a, b *domain.Member) bool {
	if a == nil || b == nil {
		return a == b
	}
	return memberEqual(*a, *b)
}

func memberEqual(a, b domain.Member) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.Email == b.Email &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.StatusRecord.Equal(b.StatusRecord)
}
