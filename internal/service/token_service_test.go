package service

import (
	"testing"
	"time"

	"updown-game-server/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret: "test-secret-key",
		Expiry: time.Hour,
		Issuer: "updown-game-server",
	}
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(testJWTConfig())
	userID := uuid.New()

	token, err := svc.Generate(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenService_Validate_Garbage(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	_, err := svc.Validate("not.a.token")
	assert.Error(t, err)
}

func TestTokenService_Validate_WrongSecret(t *testing.T) {
	issuer := NewTokenService(config.JWTConfig{Secret: "secret-a", Expiry: time.Hour, Issuer: "updown-game-server"})
	verifier := NewTokenService(config.JWTConfig{Secret: "secret-b", Expiry: time.Hour, Issuer: "updown-game-server"})

	token, err := issuer.Generate(uuid.New())
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestTokenService_Validate_Expired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Expiry = -time.Minute
	svc := NewTokenService(cfg)

	token, err := svc.Generate(uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestTokenService_Validate_WrongIssuer(t *testing.T) {
	other := NewTokenService(config.JWTConfig{Secret: "test-secret-key", Expiry: time.Hour, Issuer: "someone-else"})
	svc := NewTokenService(testJWTConfig())

	token, err := other.Generate(uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}
