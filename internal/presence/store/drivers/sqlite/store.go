// Package sqlite is a durable single-node store backend. Every leaf of the
// tree is one row of the nodes table keyed by its full path.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/aussiebroadwan/presence/internal/presence/store"
	_ "modernc.org/sqlite"
)

const (
	deleteSubtreeSQL = `DELETE FROM nodes WHERE path = ? OR (path >= ? AND path < ?)`
	deletePathSQL    = `DELETE FROM nodes WHERE path = ?`
	insertSQL        = `INSERT INTO nodes (path, value) VALUES (?, ?)`
	selectSubtreeSQL = `SELECT path, value FROM nodes WHERE path = ? OR (path >= ? AND path < ?)`
)

type Backend struct {
	db  *sql.DB
	dsn string
}

// Open opens the database at dsn. Call ApplyMigrations before use.
func Open(dsn string) (*Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One writer at a time; sqlite serialises them anyway and this keeps
	// busy errors out of Apply.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Backend{db: db, dsn: dsn}, nil
}

// NewWithDB wraps an already opened handle.
func NewWithDB(db *sql.DB) *Backend {
	return &Backend{db: db}
}

// NewStore opens dsn, migrates it and returns a Tree over it.
func NewStore(dsn string, opts ...store.Option) (*store.Tree, error) {
	b, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := b.ApplyMigrations(); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("sqlite migrations: %w", err)
	}
	return store.New(b, opts...), nil
}

func (b *Backend) Close() error { return b.db.Close() }

// Ping verifies the database connection is still alive.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Apply runs every op in one transaction.
func (b *Backend) Apply(ctx context.Context, ops []store.Op) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		for _, op := range ops {
			lo, hi := store.DescendantRange(op.Path)
			if _, err := tx.ExecContext(ctx, deleteSubtreeSQL, op.Path, lo, hi); err != nil {
				return err
			}
			for _, a := range store.Ancestors(op.Path) {
				if _, err := tx.ExecContext(ctx, deletePathSQL, a); err != nil {
					return err
				}
			}

			paths := make([]string, 0, len(op.Leaves))
			for p := range op.Leaves {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				if _, err := tx.ExecContext(ctx, insertSQL, p, string(op.Leaves[p])); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (b *Backend) Leaves(ctx context.Context, path string) (store.Leaves, error) {
	lo, hi := store.DescendantRange(path)
	rows, err := b.db.QueryContext(ctx, selectSubtreeSQL, path, lo, hi)
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
