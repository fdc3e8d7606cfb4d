package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, sub, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestHMACVerifierRoundTrip(t *testing.T) {
	v := NewHMACVerifier("shared-secret")

	identity, err := v.Verify(signToken(t, "shared-secret", "rider-1", RoleRider))
	require.NoError(t, err)
	assert.Equal(t, "rider-1", identity.Subject)
	assert.Equal(t, RoleRider, identity.Role)
}

func TestHMACVerifierWrongSecret(t *testing.T) {
	v := NewHMACVerifier("shared-secret")

	_, err := v.Verify(signToken(t, "some-other-secret", "rider-1", RoleRider))
	assert.Error(t, err)
}

func TestHMACVerifierExpiredToken(t *testing.T) {
	v := NewHMACVerifier("shared-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "rider-1",
		"role": RoleRider,
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = v.Verify(signed)
	assert.Error(t, err)
}

func TestHMACVerifierMissingSubject(t *testing.T) {
	v := NewHMACVerifier("shared-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": RoleRider,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = v.Verify(signed)
	assert.Error(t, err)
}

func TestExtractTokenFromRequest(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/api/rider/events", nil)
	r.Header.Set("Authorization", "Bearer abc123")

	token, err := ExtractTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
}

func TestExtractTokenMissingHeader(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/api/rider/events", nil)

	_, err := ExtractTokenFromRequest(r)
	assert.Error(t, err)
}

func TestExtractTokenMalformedHeader(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/api/rider/events", nil)
	r.Header.Set("Authorization", "Token abc123")

	_, err := ExtractTokenFromRequest(r)
	assert.Error(t, err)
}
