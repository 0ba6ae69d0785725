package httpx

import (
	"context"

	"github.com/sendhello/auth-service/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyClaims ctxKey = "claims"
	CtxKeyToken  ctxKey = "token"
)

// WithClaims stores the authenticated claims and the raw bearer token.
func WithClaims(ctx context.Context, claims jwtx.Claims, token string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyClaims, claims)
	return context.WithValue(ctx, CtxKeyToken, token)
}

// ClaimsFromContext returns the claims stored by Authn.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

// TokenFromContext returns the bearer token Authn accepted.
func TokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyToken).(string); ok {
		return v
	}
	return ""
}
