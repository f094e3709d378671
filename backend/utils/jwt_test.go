package utils

import (
	"testing"
	"time"
	"tutorium/backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "testsecret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func TestGenerateAndVerifyTokenPair(t *testing.T) {
	cfg := testJWTConfig()

	pair, err := GenerateTokenPair(42, "user", cfg)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	access, err := VerifyToken(pair.AccessToken, TokenTypeAccess, cfg)
	require.NoError(t, err)
	assert.EqualValues(t, 42, access.UserID)
	assert.Equal(t, "user", access.Role)
	assert.Equal(t, TokenTypeAccess, access.Type)

	refresh, err := VerifyToken(pair.RefreshToken, TokenTypeRefresh, cfg)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.Type)
}

func TestVerifyTokenRejectsWrongType(t *testing.T) {
	cfg := testJWTConfig()

	pair, err := GenerateTokenPair(42, "user", cfg)
	require.NoError(t, err)

	// A refresh token is not an access token and vice versa.
	_, err = VerifyToken(pair.RefreshToken, TokenTypeAccess, cfg)
	assert.Error(t, err)

	_, err = VerifyToken(pair.AccessToken, TokenTypeRefresh, cfg)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()

	pair, err := GenerateTokenPair(42, "user", cfg)
	require.NoError(t, err)

	other := testJWTConfig()
	other.JWTSecret = "different"

	_, err = VerifyToken(pair.AccessToken, TokenTypeAccess, other)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessTokenTTL = -time.Minute

	pair, err := GenerateTokenPair(42, "user", cfg)
	require.NoError(t, err)

	_, err = VerifyToken(pair.AccessToken, TokenTypeAccess, cfg)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	cfg := testJWTConfig()

	_, err := VerifyToken("not-a-token", TokenTypeAccess, cfg)
	assert.Error(t, err)
}
