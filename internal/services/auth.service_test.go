package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func TestAuthServiceTokenRoundTrip(t *testing.T) {
	auth, err := NewAuthService(testSecret, "", time.Hour, zerolog.Nop())
	require.NoError(t, err)

	token, err := auth.GenerateToken("web-01")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "web-01", claims.ServerName)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.Equal(t, time.Hour, auth.TokenExpiry())
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	auth, err := NewAuthService(testSecret, "", time.Hour, zerolog.Nop())
	require.NoError(t, err)
	other, err := NewAuthService(strings.Repeat("x", 40), "", time.Hour, zerolog.Nop())
	require.NoError(t, err)

	token, err := auth.GenerateToken("web-01")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err, "signed with another key")

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	_, err = auth.ValidateToken(tampered)
	assert.Error(t, err)

	_, err = auth.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestAuthServiceExpiry(t *testing.T) {
	auth, err := NewAuthService(testSecret, "", time.Minute, zerolog.Nop())
	require.NoError(t, err)

	issued := time.Now()
	auth.now = func() time.Time { return issued }
	token, err := auth.GenerateToken("web-01")
	require.NoError(t, err)

	auth.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = auth.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthServiceShortSecret(t *testing.T) {
	_, err := NewAuthService("too-short", "", time.Hour, zerolog.Nop())
	assert.Error(t, err)
}

func TestAuthServicePersistsGeneratedSecret(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "secret")

	first, err := NewAuthService("", keyFile, 0, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 90*24*time.Hour, first.TokenExpiry())

	info, err := os.Stat(keyFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err := first.GenerateToken("web-01")
	require.NoError(t, err)

	second, err := NewAuthService("", keyFile, 0, zerolog.Nop())
	require.NoError(t, err)
	_, err = second.ValidateToken(token)
	assert.NoError(t, err)
}
