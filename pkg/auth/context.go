package auth

import "context"

type contextKey struct{}

var claimsKey contextKey

// ContextWithClaims attaches the authenticated claims to the context.
func ContextWithClaims(ctx context.Context, claims *AccessTokenClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims the auth middleware attached, if any.
func ClaimsFromContext(ctx context.Context) (*AccessTokenClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*AccessTokenClaims)
	return claims, ok && claims != nil
}

// JTI returns the token's unique identifier used as the session key.
func (c *AccessTokenClaims) JTI() string {
	if c == nil {
		return ""
	}
	return c.ID
}
