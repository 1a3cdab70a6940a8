package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyToken  ctxKey = "token"
)

// WithUserID stores the authenticated user id on ctx.
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, uid)
}

// UserIDFromContext returns the authenticated user id, or "" when the
// request is anonymous.
func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(CtxKeyUserID).(string)
	return uid
}

// TokenFromContext returns the raw bearer token the request was authorised with.
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(CtxKeyToken).(string)
	return tok
}
