package store

import (
	"context"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
)

const teamsRoot = "teams"

type teamDoc struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
	CreatedBy string `json:"createdBy"`
}

// Teams is the teams/{code} collection.
type Teams struct{ t *Tree }

func (t *Tree) Teams() *Teams { return &Teams{t: t} }

func TeamPath(code string) string { return Join(teamsRoot, code) }

// Create writes a team. Codes are not checked for collisions.
func (r *Teams) Create(ctx context.Context, team domain.Team) error {
	return r.t.Write(ctx, TeamPath(team.Code), teamDoc{
		Code:      team.Code,
		Name:      team.Name,
		CreatedAt: Millis(team.CreatedAt),
		CreatedBy: team.CreatedBy,
	})
}

// Get returns ErrNotFound for unknown codes.
func (r *Teams) Get(ctx context.Context, code string) (domain.Team, error) {
	snap, err := r.t.Read(ctx, TeamPath(code))
	if err != nil {
		return domain.Team{}, err
	}

	var doc teamDoc
	if err := snap.Decode(&doc); err != nil {
		return domain.Team{}, err
	}
	if doc.Code == "" {
		doc.Code = snap.Key()
	}
	return domain.Team{
		Code:      doc.Code,
		Name:      doc.Name,
		CreatedAt: FromMillis(doc.CreatedAt),
		CreatedBy: doc.CreatedBy,
	}, nil
}
