package session

import (
	"context"
	"fmt"

	"github.com/sendhello/auth-service/internal/auth/revocation"
	"github.com/sendhello/auth-service/pkg/jwtx"
)

// Limiter counts a request against the presented access token.
type Limiter interface {
	Exceeded(ctx context.Context, token string) (bool, error)
}

// Guard authenticates access tokens on protected calls: signature and
// expiry, then rate limit, then blacklist.
type Guard struct {
	Verifier    jwtx.Verifier
	Limiter     Limiter
	Revocations revocation.Store
}

func (g *Guard) Authenticate(ctx context.Context, token string) (jwtx.Claims, error) {
	// 1. Signature, expiry and kind
	claims, err := g.Verifier.Verify(token)
	if err != nil {
		return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if err := claims.ExpectType(jwtx.TypeAccess); err != nil {
		return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	// 2. Rate limit
	if g.Limiter != nil {
		exceeded, err := g.Limiter.Exceeded(ctx, token)
		if err != nil {
			return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		if exceeded {
			return jwtx.Claims{}, ErrRateLimited
		}
	}

	// 3. Blacklist
	revoked, err := g.Revocations.IsBlacklisted(ctx, claims.Subject, token)
	if err != nil {
		return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if revoked {
		return jwtx.Claims{}, ErrTokenRevoked
	}

	return claims, nil
}
