// Package postgres is a store backend shared between processes. Leaves live
// in the nodes table and every committed change is announced with
// NOTIFY so other processes can fan it out to their own subscribers.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/store"
	"github.com/aussiebroadwan/presence/pkg/idx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Channel is the NOTIFY channel changes are announced on.
const Channel = "presence_changes"

// maxPayload stays under the server's 8000 byte NOTIFY limit.
const maxPayload = 7900

const (
	deleteSubtreeSQL   = `DELETE FROM nodes WHERE path = $1 OR (path >= $2 AND path < $3)`
	deleteAncestorsSQL = `DELETE FROM nodes WHERE path = ANY($1)`
	insertSQL          = `INSERT INTO nodes (path, value)
		SELECT * FROM unnest($1::text[], $2::text[])
		ON CONFLICT (path) DO UPDATE SET value = EXCLUDED.value`
	selectSubtreeSQL = `SELECT path, value FROM nodes WHERE path = $1 OR (path >= $2 AND path < $3)`
	notifySQL        = `SELECT pg_notify($1, $2)`
	rootsSQL         = `SELECT DISTINCT split_part(path, '/', 1) FROM nodes`
)

type change struct {
	Origin string   `json:"origin"`
	Paths  []string `json:"paths"`
}

type Backend struct {
	pool   *pgxpool.Pool
	dsn    string
	origin string
	log    *slog.Logger
	retry  time.Duration
}

// Open connects to dsn. Call ApplyMigrations before use.
func Open(ctx context.Context, dsn string, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Backend{
		pool:   pool,
		dsn:    dsn,
		origin: idx.New().String(),
		log:    log,
		retry:  time.Second,
	}, nil
}

// NewStore connects, migrates and returns a Tree over the database.
func NewStore(ctx context.Context, dsn string, opts ...store.Option) (*store.Tree, error) {
	b, err := Open(ctx, dsn, nil)
	if err != nil {
		return nil, err
	}
	if err := b.ApplyMigrations(); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}
	return store.New(b, opts...), nil
}

func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// Apply runs every op and the change announcement in one transaction.
func (b *Backend) Apply(ctx context.Context, ops []store.Op) error {
	tx, err := b.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	paths := make([]string, 0, len(ops))
	for _, op := range ops {
		paths = append(paths, op.Path)

		lo, hi := store.DescendantRange(op.Path)
		if _, err := tx.Exec(ctx, deleteSubtreeSQL, op.Path, lo, hi); err != nil {
			return err
		}
		if anc := store.Ancestors(op.Path); len(anc) > 0 {
			if _, err := tx.Exec(ctx, deleteAncestorsSQL, anc); err != nil {
				return err
			}
		}

		if len(op.Leaves) == 0 {
			continue
		}
		keys := make([]string, 0, len(op.Leaves))
		for p := range op.Leaves {
			keys = append(keys, p)
		}
		sort.Strings(keys)
		values := make([]string, len(keys))
		for i, p := range keys {
			values[i] = string(op.Leaves[p])
		}
		if _, err := tx.Exec(ctx, insertSQL, keys, values); err != nil {
			return err
		}
	}

	payload, err := encodeChange(b.origin, paths)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, notifySQL, Channel, payload); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (b *Backend) Leaves(ctx context.Context, path string) (store.Leaves, error) {
	lo, hi := store.DescendantRange(path)
	rows, err := b.pool.Query(ctx, selectSubtreeSQL, path, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := store.Leaves{}
	for rows.Next() {
		var p, v string
		if err := rows.Scan(&p, &v); err != nil {
			return nil, err
		}
		out[p] = []byte(v)
	}
	return out, rows.Err()
}

// encodeChange builds the NOTIFY payload. When the path list does not fit,
// it is widened to the distinct top-level segments.
func encodeChange(origin string, paths []string) (string, error) {
	raw, err := json.Marshal(change{Origin: origin, Paths: paths})
	if err != nil {
		return "", err
	}
	if len(raw) <= maxPayload {
		return string(raw), nil
	}

	seen := map[string]struct{}{}
	roots := []string{}
	for _, p := range paths {
		r, _, _ := strings.Cut(p, "/")
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		roots = append(roots, r)
	}
	raw, err = json.Marshal(change{Origin: origin, Paths: roots})
	return string(raw), err
}
