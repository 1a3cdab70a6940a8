package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/service"
	"github.com/aussiebroadwan/presence/pkg/httpx"
)

// StatusHandler reads and writes the caller's own status.
type StatusHandler struct {
	clientHandler
}

// HandleGet godoc
//
//	@Summary	Own status
//	@Tags		Status
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Failure	401	{object}	httpx.ErrorBody
//	@Router		/v1/status [get].
func (h *StatusHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c := h.client(w, r)
	if c == nil {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toStatus(c.Status.Current()))
}

// HandlePut godoc
//
//	@Summary		Set own status
//	@Description	Omitted message keeps the stored one. clear_expiry removes any expiry and cannot be combined with expires_at.
//	@Tags			Status
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		StatusRequest	true	"new status"
//	@Success		200		{object}	StatusResponse
//	@Failure		400		{object}	httpx.ErrorBody	"invalid status or expiry"
//	@Failure		503		{object}	httpx.ErrorBody	"store unavailable"
//	@Router			/v1/status [put].
func (h *StatusHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.ClearExpiry && req.ExpiresAt != nil {
		writeError(w, r, domain.NewValidationError("expiresAt", "conflicts with clear_expiry"))
		return
	}

	c := h.client(w, r)
	if c == nil {
		return
	}

	var opts []service.StatusOption
	if req.Message != nil {
		opts = append(opts, service.WithMessage(*req.Message))
	}
	switch {
	case req.ClearExpiry:
		opts = append(opts, service.WithoutExpiry())
	case req.ExpiresAt != nil:
		opts = append(opts, service.WithExpiry(time.UnixMilli(*req.ExpiresAt).UTC()))
	}

	if err := c.Status.SetStatus(r.Context(), status, opts...); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toStatus(c.Status.Current()))
}
