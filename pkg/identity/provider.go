package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aussiebroadwan/presence/pkg/cryptox"
	"github.com/aussiebroadwan/presence/pkg/idx"
	"github.com/aussiebroadwan/presence/pkg/jwtx"
	"github.com/aussiebroadwan/presence/pkg/slogx"
)

type Config struct {
	// Secret signs session tokens (HS256, at least 32 bytes).
	Secret []byte
	Issuer string

	SessionTTL time.Duration
	ResetTTL   time.Duration

	Mailer Mailer
	Now    func() time.Time
}

type tokenCodec interface {
	jwtx.Signer
	jwtx.Verifier
}

// Provider signs users up and in, and verifies their session tokens.
type Provider struct {
	creds      CredentialStore
	tokens     tokenCodec
	mailer     Mailer
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewProvider(creds CredentialStore, cfg Config) (*Provider, error) {
	if cfg.Issuer == "" {
		cfg.Issuer = "presence"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = jwtx.DefaultSessionTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if cfg.Mailer == nil {
		cfg.Mailer = LogMailer{}
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	tokens, err := jwtx.NewHS256(cfg.Secret, cfg.Issuer)
	if err != nil {
		return nil, err
	}
	tokens.WithClock(cfg.Now)

	return &Provider{
		creds:      creds,
		tokens:     tokens,
		mailer:     cfg.Mailer,
		sessionTTL: cfg.SessionTTL,
		resetTTL:   cfg.ResetTTL,
		now:        cfg.Now,
	}, nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// SignUp creates an account and opens a session for it.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return nil, ErrInvalidCredentials
	}
	if len(password) < MinPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}

	acct := Account{
		UID:          strings.ToLower(idx.New().String()),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    p.now(),
	}
	if err := p.creds.CreateAccount(ctx, acct); err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("account created", slog.String("user_id", acct.UID))
	return p.openSession(acct)
}

// SignIn checks a password and opens a session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)

	acct, err := p.creds.AccountByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, acct.PasswordHash); err != nil {
		slogx.FromContext(ctx).Warn("sign-in rejected", slog.String("user_id", acct.UID))
		return nil, ErrInvalidCredentials
	}
	return p.openSession(acct)
}

func (p *Provider) openSession(acct Account) (*Session, error) {
	principal := Principal{UID: acct.UID, Email: acct.Email, Name: displayName(acct.Email)}
	claims := jwtx.NewSessionClaims(acct.UID, acct.Email, principal.Name, p.sessionTTL, "", p.now())

	token, err := p.tokens.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("identity: sign session: %w", err)
	}
	return newSession(p, principal, token, claims.ExpiresAt.Time), nil
}

// Verify resolves a session token to its principal.
func (p *Provider) Verify(ctx context.Context, token string) (Principal, error) {
	principal, _, err := p.verify(ctx, token)
	return principal, err
}

func (p *Provider) verify(ctx context.Context, token string) (Principal, jwtx.Claims, error) {
	claims, err := p.tokens.Verify(token)
	if err != nil {
		return Principal{}, claims, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	revoked, err := p.creds.SessionRevoked(ctx, claims.ID)
	if err != nil {
		return Principal{}, claims, err
	}
	if revoked {
		return Principal{}, claims, ErrSignedOut
	}

	return Principal{UID: claims.Subject, Email: claims.Email, Name: claims.Name}, claims, nil
}

// TokenExpiry returns when token stops verifying. Revocation is not checked.
func (p *Provider) TokenExpiry(token string) (time.Time, error) {
	claims, err := p.tokens.Verify(token)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return expiryOf(claims, p.now().Add(p.sessionTTL)), nil
}

func expiryOf(claims jwtx.Claims, fallback time.Time) time.Time {
	if claims.ExpiresAt == nil {
		return fallback
	}
	return claims.ExpiresAt.Time
}

// VerifyToken adapts Verify to the HTTP authn middleware.
func (p *Provider) VerifyToken(ctx context.Context, token string) (string, error) {
	principal, err := p.Verify(ctx, token)
	if err != nil {
		return "", err
	}
	return principal.UID, nil
}

// Resume opens a Session around an existing token.
func (p *Provider) Resume(ctx context.Context, token string) (*Session, error) {
	principal, claims, err := p.verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return newSession(p, principal, token, expiryOf(claims, p.now().Add(p.sessionTTL))), nil
}

// Revoke signs a token out. Revoking an already invalid token is not an error.
func (p *Provider) Revoke(ctx context.Context, token string) error {
	claims, err := p.tokens.Verify(token)
	if err != nil {
		return nil
	}

	return p.creds.RevokeSession(ctx, claims.ID, expiryOf(claims, p.now().Add(p.sessionTTL)))
}

// SendPasswordReset mails a single-use reset token. Unknown addresses are
// accepted silently so the endpoint does not reveal which emails exist.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	log := slogx.FromContext(ctx)

	if _, err := p.creds.AccountByEmail(ctx, email); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			log.Info("password reset for unknown email ignored")
			return nil
		}
		return err
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}
	if err := p.creds.SaveReset(ctx, cryptox.FingerprintToken(token), email, p.now().Add(p.resetTTL)); err != nil {
		return err
	}
	return p.mailer.SendPasswordReset(ctx, email, token)
}

// ResetPassword consumes a reset token and sets a new password.
func (p *Provider) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLen {
		return ErrWeakPassword
	}

	email, expiresAt, err := p.creds.TakeReset(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		return err
	}
	if !p.now().Before(expiresAt) {
		return ErrResetExpired
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("identity: hash password: %w", err)
	}
	return p.creds.SetPasswordHash(ctx, email, hash)
}

func displayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
