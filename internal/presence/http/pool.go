package http

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/client"
	"github.com/aussiebroadwan/presence/internal/presence/clock"
	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/service"
	"github.com/aussiebroadwan/presence/pkg/identity"
)

// ClientPool keeps one client per signed-in user, opened on first use and
// dropped when its session ends or the latest-expiring token seen for the
// user expires.
type ClientPool struct {
	provider *identity.Provider
	accounts *service.AccountService
	deps     client.Deps
	clock    clock.Clock
	log      *slog.Logger

	mu      sync.Mutex
	entries map[string]*poolEntry
	closed  bool
}

type poolEntry struct {
	client  *client.Client
	session *identity.Session

	// guarded by ClientPool.mu
	expiresAt time.Time
	timer     clock.Timer
}

// NewClientPool builds clients from deps; deps.Session is filled per user.
func NewClientPool(provider *identity.Provider, accounts *service.AccountService, deps client.Deps) *ClientPool {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &ClientPool{
		provider: provider,
		accounts: accounts,
		deps:     deps,
		clock:    clk,
		log:      log,
		entries:  make(map[string]*poolEntry),
	}
}

// Acquire returns the user's client, resuming a session from token when
// none is open yet.
func (p *ClientPool) Acquire(ctx context.Context, uid, token string) (*client.Client, error) {
	if uid == "" || token == "" {
		return nil, domain.ErrAuthRequired
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, domain.ErrAuthRequired
	}
	if e, ok := p.entries[uid]; ok {
		p.mu.Unlock()
		p.extend(uid, e, token)
		return e.client, nil
	}
	p.mu.Unlock()

	session, err := p.provider.Resume(ctx, token)
	if err != nil {
		return nil, err
	}
	principal, _ := session.Current()
	if principal.UID != uid {
		return nil, domain.ErrAuthRequired
	}
	if err := p.accounts.EnsureRecord(ctx, principal); err != nil {
		return nil, err
	}

	deps := p.deps
	deps.Session = session
	c, err := client.New(ctx, deps)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if e, ok := p.entries[uid]; ok || p.closed {
		p.mu.Unlock()
		session.End()
		if ok {
			p.extend(uid, e, token)
			return e.client, nil
		}
		return nil, domain.ErrAuthRequired
	}
	entry := &poolEntry{client: c, session: session}
	p.entries[uid] = entry
	p.armLocked(uid, entry, session.ExpiresAt())
	p.mu.Unlock()

	go func() {
		<-c.Done()
		p.mu.Lock()
		if p.entries[uid] == entry {
			delete(p.entries, uid)
		}
		stopLocked(entry)
		p.mu.Unlock()
	}()

	p.log.Debug("client pooled", slog.String("user_id", uid))
	return c, nil
}

// Release ends the user's session, which closes their client and every
// stream opened through it.
func (p *ClientPool) Release(uid string) {
	p.mu.Lock()
	e, ok := p.entries[uid]
	delete(p.entries, uid)
	if ok {
		stopLocked(e)
	}
	p.mu.Unlock()

	if ok {
		e.session.End()
	}
}

// extend pushes the entry's deadline out to token's expiry when that is
// later than the current one.
func (p *ClientPool) extend(uid string, e *poolEntry, token string) {
	exp, err := p.provider.TokenExpiry(token)
	if err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.entries[uid] != e || !exp.After(e.expiresAt) {
		return
	}
	p.armLocked(uid, e, exp)
}

func (p *ClientPool) armLocked(uid string, e *poolEntry, at time.Time) {
	stopLocked(e)
	e.expiresAt = at
	e.timer = p.clock.AfterFunc(at.Sub(p.clock.Now()), func() { p.expire(uid, e) })
}

func stopLocked(e *poolEntry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// expire ends the entry's session once its deadline has passed. A deadline
// moved by extend after the timer fired keeps the entry.
func (p *ClientPool) expire(uid string, e *poolEntry) {
	p.mu.Lock()
	if p.entries[uid] != e || p.clock.Now().Before(e.expiresAt) {
		p.mu.Unlock()
		return
	}
	delete(p.entries, uid)
	e.timer = nil
	p.mu.Unlock()

	p.log.Debug("session expired, client released", slog.String("user_id", uid))
	e.session.End()
}

// Len reports how many clients are open.
func (p *ClientPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Close releases every client. Later Acquire calls fail.
func (p *ClientPool) Close() {
	p.mu.Lock()
	p.closed = true
	entries := p.entries
	p.entries = make(map[string]*poolEntry)
	for _, e := range entries {
		stopLocked(e)
	}
	p.mu.Unlock()

	for _, e := range entries {
		e.session.End()
	}
}
