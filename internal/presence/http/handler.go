package http

import (
	"net/http"

	"github.com/aussiebroadwan/presence/internal/presence/client"
	"github.com/aussiebroadwan/presence/pkg/httpx"
)

// clientHandler resolves the per-user client for authenticated routes.
type clientHandler struct {
	Pool *ClientPool
}

// client writes the error response itself and returns nil when the caller
// has no usable session.
func (h clientHandler) client(w http.ResponseWriter, r *http.Request) *client.Client {
	ctx := r.Context()
	c, err := h.Pool.Acquire(ctx, httpx.UserIDFromContext(ctx), httpx.TokenFromContext(ctx))
	if err != nil {
		writeError(w, r, err)
		return nil
	}
	return c
}
