package identity

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/presence/pkg/slogx"
)

// LogMailer writes reset tokens to the log instead of sending mail. Only
// meant for development.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	slogx.FromContext(ctx).Info("password reset requested",
		slog.String("email", email),
		slog.String("token", token),
	)
	return nil
}
