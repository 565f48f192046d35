package token

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifierRoundTrip(t *testing.T) {
	v := NewJWTVerifier("secret", "tourhub")

	signed, err := v.Issue("user-1", time.Hour)
	require.NoError(t, err)

	uid, err := v.VerifyToken(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
}

func TestJWTVerifierRejects(t *testing.T) {
	v := NewJWTVerifier("secret", "tourhub")

	expired, err := v.Issue("user-1", -time.Minute)
	require.NoError(t, err)

	otherKey, err := NewJWTVerifier("other", "tourhub").Issue("user-1", time.Hour)
	require.NoError(t, err)

	otherIssuer, err := NewJWTVerifier("secret", "someone-else").Issue("user-1", time.Hour)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "tourhub",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong key":    otherKey,
		"wrong issuer": otherIssuer,
		"no subject":   noSubject,
		"alg none":     unsigned,
		"garbage":      "not-a-token",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.VerifyToken(context.Background(), tok)
			assert.Error(t, err)
		})
	}
}
