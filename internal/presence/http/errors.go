package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/pkg/httpx"
	"github.com/aussiebroadwan/presence/pkg/identity"
	"github.com/aussiebroadwan/presence/pkg/slogx"
)

// writeError maps service and identity errors to a status code and an
// ErrorBody. Anything unrecognised is logged and reported as a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	switch {
	case errors.As(err, &de):
		httpx.WriteError(w, domainStatus(de.Code), de.Code, de.Message)
	case errors.Is(err, domain.ErrPersistence):
		slogx.FromContext(r.Context()).Error("store failure", slog.Any("error", err))
		httpx.WriteError(w, http.StatusServiceUnavailable, domain.CodePersistence, "store unavailable, try again")
	case errors.Is(err, identity.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	case errors.Is(err, identity.ErrSignedOut):
		httpx.WriteError(w, http.StatusUnauthorized, domain.CodeAuthRequired, "session signed out")
	case errors.Is(err, identity.ErrEmailInUse):
		httpx.WriteError(w, http.StatusConflict, "EMAIL_IN_USE", "email already registered")
	case errors.Is(err, identity.ErrWeakPassword):
		httpx.WriteError(w, http.StatusBadRequest, domain.CodeValidation, "password: too short")
	case errors.Is(err, identity.ErrInvalidToken), errors.Is(err, identity.ErrResetExpired):
		httpx.WriteError(w, http.StatusBadRequest, "INVALID_TOKEN", "reset token is invalid or expired")
	default:
		slogx.FromContext(r.Context()).Error("unhandled error", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func domainStatus(code string) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeAuthRequired:
		return http.StatusUnauthorized
	case domain.CodeTeamNotFound, domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodePersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeBadRequest reports a body that failed to decode.
func writeBadRequest(w http.ResponseWriter, err error) {
	httpx.WriteError(w, http.StatusBadRequest, domain.CodeValidation, err.Error())
}
