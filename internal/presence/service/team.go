package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/store"
	"github.com/aussiebroadwan/presence/pkg/cryptox"
)

// DefaultCodePrefix starts every generated team code.
const DefaultCodePrefix = "TEAM-"

// CodeLength is the number of random characters after the prefix.
const CodeLength = 6

// TeamMembership creates teams and points the caller at one. Membership is
// only the teamCode on the caller's own record.
type TeamMembership struct {
	env    Env
	teams  *store.Teams
	users  *store.Users
	prefix string
}

func NewTeamMembership(env Env, prefix string) *TeamMembership {
	env = env.withDefaults()
	if prefix == "" {
		prefix = DefaultCodePrefix
	}
	return &TeamMembership{
		env:    env,
		teams:  env.Store.Teams(),
		users:  env.Store.Users(),
		prefix: prefix,
	}
}

// CreateTeam stores a new team founded by the caller, joins it and returns
// its code. Codes are not checked for collisions.
func (t *TeamMembership) CreateTeam(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError("name", "required")
	}

	code, err := cryptox.GenerateCode(t.prefix, CodeLength)
	if err != nil {
		return "", err
	}

	team := domain.Team{
		Code:      code,
		Name:      name,
		CreatedAt: t.env.Clock.Now(),
		CreatedBy: t.env.UserID,
	}
	if err := t.teams.Create(ctx, team); err != nil {
		return "", domain.Persistence("create team", store.TeamPath(code), err)
	}
	if err := t.users.SetTeam(ctx, t.env.UserID, code); err != nil {
		return "", domain.Persistence("join team", store.UserPath(t.env.UserID), err)
	}

	t.env.Logger.Info("team created", slog.String("team_code", code))
	return code, nil
}

// JoinTeam sets the caller's team code after checking the team exists.
func (t *TeamMembership) JoinTeam(ctx context.Context, code string) error {
	team, err := t.Team(ctx, code)
	if err != nil {
		return err
	}
	if err := t.users.SetTeam(ctx, t.env.UserID, team.Code); err != nil {
		return domain.Persistence("join team", store.UserPath(t.env.UserID), err)
	}

	t.env.Logger.Info("team joined", slog.String("team_code", team.Code))
	return nil
}

// Team looks a team up by code.
func (t *TeamMembership) Team(ctx context.Context, code string) (domain.Team, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Team{}, domain.NewValidationError("code", "required")
	}

	team, err := t.teams.Get(ctx, code)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidPath) {
		return domain.Team{}, domain.NewTeamNotFoundError(code)
	}
	if err != nil {
		return domain.Team{}, domain.Persistence("get team", store.TeamPath(code), err)
	}
	return team, nil
}
