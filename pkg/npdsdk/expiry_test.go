package npdsdk

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unrelated-key"))
	require.NoError(t, err)
	return token
}

func TestParseExpiry(t *testing.T) {
	t.Parallel()

	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	withExp := mintToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	withoutExp := mintToken(t, jwt.RegisteredClaims{Subject: "123456789012"})

	t.Run("server timestamp wins", func(t *testing.T) {
		got := parseExpiry("2021-03-03T10:22:16.000Z", withExp)
		require.True(t, time.Date(2021, 3, 3, 10, 22, 16, 0, time.UTC).Equal(got))
	})

	t.Run("falls back to exp claim", func(t *testing.T) {
		require.True(t, exp.Equal(parseExpiry("", withExp)))
		require.True(t, exp.Equal(parseExpiry("soon", withExp)))
	})

	t.Run("no hint means expired", func(t *testing.T) {
		require.True(t, parseExpiry("", withoutExp).IsZero())
		require.True(t, parseExpiry("", "opaque-token").IsZero())
		require.True(t, parseExpiry("", "").IsZero())
	})
}
