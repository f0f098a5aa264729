package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", "scholaris")

	token, err := svc.GenerateToken("researcher")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "researcher", claims.Subject)
	assert.Equal(t, "scholaris", claims.Issuer)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", "scholaris")

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-a", "scholaris")
	verifier := NewJWTService("secret-b", "scholaris")

	token, err := issuer.GenerateToken("researcher")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAPIKeyHashing(t *testing.T) {
	hash, err := HashAPIKey("sk-local-dev")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, VerifyAPIKey([]string{hash}, "sk-local-dev"))
	assert.False(t, VerifyAPIKey([]string{hash}, "sk-other"))
	assert.False(t, VerifyAPIKey(nil, "sk-local-dev"))
}
