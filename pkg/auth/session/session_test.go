package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestIssueParseRoundTrip(t *testing.T) {
	tok, err := Issue(secret, 42, "a@example.org", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(tok, secret)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "a@example.org", claims.Email)
}

func TestParseRejects(t *testing.T) {
	tok, err := Issue(secret, 1, "a@example.org", time.Hour)
	require.NoError(t, err)

	_, err = Parse(tok, []byte("other-secret"))
	assert.Error(t, err, "wrong secret")

	expired, err := Issue(secret, 1, "a@example.org", -time.Minute)
	require.NoError(t, err)
	_, err = Parse(expired, secret)
	assert.Error(t, err, "expired")

	_, err = Parse("", secret)
	assert.Error(t, err, "empty token")
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = Parse(tok, secret)
	assert.Error(t, err)
}

func TestIssueNeedsSecret(t *testing.T) {
	_, err := Issue(nil, 1, "a@example.org", time.Hour)
	assert.Error(t, err)
}
