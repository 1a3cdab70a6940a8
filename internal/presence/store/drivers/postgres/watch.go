package postgres

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Watch listens for changes committed by other processes and hands their
// paths to publish. After the listener (re)connects every top-level path is
// published once, since notifications sent while disconnected are lost.
func (b *Backend) Watch(ctx context.Context, publish func(ctx context.Context, paths []string)) error {
	resync := false
	for {
		err := b.listen(ctx, publish, resync)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.log.Warn("store change feed interrupted",
			slog.Any("error", err),
			slog.Duration("retry_in", b.retry),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.retry):
		}
		resync = true
	}
}

func (b *Backend) listen(ctx context.Context, publish func(ctx context.Context, paths []string), resync bool) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), "UNLISTEN *")
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return err
	}

	if resync {
		roots, err := b.roots(ctx)
		if err != nil {
			return err
		}
		if len(roots) > 0 {
			publish(ctx, roots)
		}
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var c change
		if err := json.Unmarshal([]byte(n.Payload), &c); err != nil {
			b.log.Warn("store change feed: bad payload", slog.String("payload", n.Payload))
			continue
		}
		if c.Origin == b.origin || len(c.Paths) == 0 {
			continue
		}
		publish(ctx, c.Paths)
	}
}

func (b *Backend) roots(ctx context.Context) ([]string, error) {
	rows, err := b.pool.Query(ctx, rootsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
