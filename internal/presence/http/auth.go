package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/service"
	"github.com/aussiebroadwan/presence/pkg/httpx"
	"github.com/aussiebroadwan/presence/pkg/identity"
)

// AuthHandler serves sign-up, sign-in, sign-out and password reset.
type AuthHandler struct {
	Provider *identity.Provider
	Accounts *service.AccountService
	Pool     *ClientPool
}

// HandleSignUp godoc
//
//	@Summary	Create an account
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		CredentialsRequest	true	"email and password"
//	@Success	201		{object}	SessionResponse
//	@Failure	400		{object}	httpx.ErrorBody	"invalid email or weak password"
//	@Failure	409		{object}	httpx.ErrorBody	"email already registered"
//	@Failure	429		{object}	httpx.ErrorBody	"rate limited"
//	@Router		/v1/auth/signup [post].
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	session, err := h.Accounts.Register(r.Context(), req.Email, req.Password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		err = domain.NewValidationError("email", "invalid address")
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, sessionResponse(session))
}

// HandleSignIn godoc
//
//	@Summary	Sign in
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		CredentialsRequest	true	"email and password"
//	@Success	200		{object}	SessionResponse
//	@Failure	401		{object}	httpx.ErrorBody	"invalid email or password"
//	@Router		/v1/auth/signin [post].
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	session, err := h.Provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	principal, _ := session.Current()
	if err := h.Accounts.EnsureRecord(r.Context(), principal); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse(session))
}

// HandleSignOut revokes the bearer token and closes the user's client.
//
//	@Summary	Sign out
//	@Tags		Auth
//	@Security	BearerAuth
//	@Success	204
//	@Failure	401	{object}	httpx.ErrorBody
//	@Router		/v1/auth/signout [post].
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Provider.Revoke(ctx, httpx.TokenFromContext(ctx)); err != nil {
		writeError(w, r, err)
		return
	}
	h.Pool.Release(httpx.UserIDFromContext(ctx))
	w.WriteHeader(http.StatusNoContent)
}

// HandlePasswordReset always answers 202 for well-formed requests so the
// response does not reveal which emails are registered.
//
//	@Summary	Request a password reset email
//	@Tags		Auth
//	@Accept		json
//	@Param		request	body	PasswordResetRequest	true	"account email"
//	@Success	202
//	@Failure	400	{object}	httpx.ErrorBody
//	@Router		/v1/auth/password-reset [post].
func (h *AuthHandler) HandlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if identity.NormalizeEmail(req.Email) == "" {
		writeError(w, r, domain.NewValidationError("email", "required"))
		return
	}

	if err := h.Provider.SendPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandlePasswordResetConfirm godoc
//
//	@Summary	Set a new password with a reset token
//	@Tags		Auth
//	@Accept		json
//	@Param		request	body	PasswordResetConfirmRequest	true	"token and new password"
//	@Success	204
//	@Failure	400	{object}	httpx.ErrorBody	"invalid or expired token"
//	@Router		/v1/auth/password-reset/confirm [post].
func (h *AuthHandler) HandlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if req.Token == "" {
		writeError(w, r, domain.NewValidationError("token", "required"))
		return
	}

	if err := h.Provider.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionResponse(s *identity.Session) SessionResponse {
	p, _ := s.Current()
	return SessionResponse{Token: s.Token(), UserID: p.UID, Email: p.Email, Name: p.Name}
}
