package npdsdk

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// parseExpiry reads the tokenExpireIn timestamp the service returns. If it is
// missing or unreadable the access token's own exp claim is used. A zero
// result means "treat as expired".
func parseExpiry(raw, token string) time.Time {
	if raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t
		}
	}
	return expiryFromJWT(token)
}

// expiryFromJWT extracts the exp claim without verifying the signature. The
// client never holds the service's key; the value is only a renewal hint.
func expiryFromJWT(token string) time.Time {
	if token == "" {
		return time.Time{}
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
