package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/presence/pkg/cryptox"
	"github.com/aussiebroadwan/presence/pkg/identity"
)

const (
	accountsRoot = "accounts"
	resetsRoot   = "password_resets"
	revokedRoot  = "revoked_sessions"
)

type accountDoc struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    int64  `json:"createdAt"`
}

type expiringDoc struct {
	Email     string `json:"email,omitempty"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Accounts stores credentials. Emails are keyed by fingerprint so addresses
// never become path segments.
type Accounts struct{ t *Tree }

func (t *Tree) Accounts() *Accounts { return &Accounts{t: t} }

var _ identity.CredentialStore = (*Accounts)(nil)

func accountPath(email string) string {
	return Join(accountsRoot, cryptox.FingerprintToken(email))
}

// CreateAccount is check-then-write; two racing sign-ups for the same email
// can both pass the check, the later write wins.
func (a *Accounts) CreateAccount(ctx context.Context, acct identity.Account) error {
	path := accountPath(acct.Email)

	snap, err := a.t.Read(ctx, path)
	if err != nil {
		return err
	}
	if snap.Exists() {
		return identity.ErrEmailInUse
	}

	return a.t.Write(ctx, path, accountDoc{
		UID:          acct.UID,
		Email:        acct.Email,
		PasswordHash: acct.PasswordHash,
		CreatedAt:    Millis(acct.CreatedAt),
	})
}

func (a *Accounts) AccountByEmail(ctx context.Context, email string) (identity.Account, error) {
	snap, err := a.t.Read(ctx, accountPath(email))
	if err != nil {
		return identity.Account{}, err
	}

	var doc accountDoc
	if err := snap.Decode(&doc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return identity.Account{}, identity.ErrAccountNotFound
		}
		return identity.Account{}, err
	}
	return identity.Account{
		UID:          doc.UID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    FromMillis(doc.CreatedAt),
	}, nil
}

func (a *Accounts) SetPasswordHash(ctx context.Context, email, hash string) error {
	if _, err := a.AccountByEmail(ctx, email); err != nil {
		return err
	}
	return a.t.Merge(ctx, accountPath(email), map[string]any{"passwordHash": hash})
}

func (a *Accounts) SaveReset(ctx context.Context, fingerprint, email string, expiresAt time.Time) error {
	return a.t.Write(ctx, Join(resetsRoot, fingerprint), expiringDoc{Email: email, ExpiresAt: Millis(expiresAt)})
}

func (a *Accounts) TakeReset(ctx context.Context, fingerprint string) (string, time.Time, error) {
	path := Join(resetsRoot, fingerprint)

	snap, err := a.t.Read(ctx, path)
	if errors.Is(err, ErrInvalidPath) {
		return "", time.Time{}, identity.ErrInvalidToken
	}
	if err != nil {
		return "", time.Time{}, err
	}

	var doc expiringDoc
	if err := snap.Decode(&doc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", time.Time{}, identity.ErrInvalidToken
		}
		return "", time.Time{}, err
	}

	if err := a.t.Remove(ctx, path); err != nil {
		return "", time.Time{}, err
	}
	return doc.Email, FromMillis(doc.ExpiresAt), nil
}

func (a *Accounts) RevokeSession(ctx context.Context, jti string, expiresAt time.Time) error {
	return a.t.Write(ctx, Join(revokedRoot, jti), expiringDoc{ExpiresAt: Millis(expiresAt)})
}

func (a *Accounts) SessionRevoked(ctx context.Context, jti string) (bool, error) {
	snap, err := a.t.Read(ctx, Join(revokedRoot, jti))
	if errors.Is(err, ErrInvalidPath) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return snap.Exists(), nil
}

// PurgeExpired drops reset tokens and session revocations that expired
// before now and returns how many were removed.
func (a *Accounts) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	values := map[string]any{}
	for _, root := range []string{resetsRoot, revokedRoot} {
		snap, err := a.t.Read(ctx, root)
		if err != nil {
			return 0, err
		}
		for _, c := range snap.Children() {
			var doc expiringDoc
			if err := c.Decode(&doc); err != nil || doc.ExpiresAt < Millis(now) {
				values[c.Path()] = nil
			}
		}
	}

	if err := a.t.Update(ctx, values); err != nil {
		return 0, err
	}
	return len(values), nil
}
