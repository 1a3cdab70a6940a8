package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/presence/pkg/slogx"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (uid string, err error)
}

// AuthnMiddleware requires a valid bearer token. Browsers cannot set headers
// on a websocket handshake, so an access_token query parameter is accepted
// for GET requests as well.
func AuthnMiddleware(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := bearerToken(r)
			if raw == "" {
				writeBearerError(w, "missing bearer token")
				return
			}

			uid, err := v.VerifyToken(ctx, raw)
			if err != nil {
				log.Warn("token verify failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = WithUserID(ctx, uid)
			ctx = context.WithValue(ctx, CtxKeyToken, raw)
			ctx = slogx.WithUserID(ctx, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	if r.Method == http.MethodGet {
		return strings.TrimSpace(r.URL.Query().Get("access_token"))
	}
	return ""
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "AUTH_REQUIRED", desc)
}
