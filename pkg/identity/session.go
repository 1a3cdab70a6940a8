package identity

import (
	"context"
	"sync"
	"time"
)

// Session is one signed-in identity. Listeners registered with OnChange hear
// about sign-out.
type Session struct {
	provider  *Provider
	expiresAt time.Time

	mu        sync.RWMutex
	principal *Principal
	token     string
	listeners map[int]func(*Principal)
	nextID    int
}

func newSession(p *Provider, principal Principal, token string, expiresAt time.Time) *Session {
	return &Session{
		provider:  p,
		expiresAt: expiresAt,
		principal: &principal,
		token:     token,
		listeners: make(map[int]func(*Principal)),
	}
}

// Current returns the signed-in principal, or false after sign-out.
func (s *Session) Current() (Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.principal == nil {
		return Principal{}, false
	}
	return *s.principal, true
}

// Token returns the bearer token, empty after sign-out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt is when the session's token stops verifying.
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

// OnChange registers fn to be called with the new principal (nil when
// signed out). The returned func removes the listener.
func (s *Session) OnChange(fn func(*Principal)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// SignOut revokes the token and ends the session.
func (s *Session) SignOut(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return nil
	}
	if err := s.provider.Revoke(ctx, token); err != nil {
		return err
	}
	s.End()
	return nil
}

// End clears the session locally without revoking the token. Listeners are
// called once.
func (s *Session) End() {
	s.mu.Lock()
	if s.principal == nil {
		s.mu.Unlock()
		return
	}
	s.principal = nil
	s.token = ""
	fns := make([]func(*Principal), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(nil)
	}
}
