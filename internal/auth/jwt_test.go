package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundtrip(t *testing.T) {
	InitializeJWT("test-secret-for-token-roundtrip")

	token, expiresAt, err := GenerateToken("user-1", "asha@example.com", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "asha@example.com", claims.Email)
}

func TestValidateTokenExpired(t *testing.T) {
	InitializeJWT("test-secret-for-token-roundtrip")

	token, _, err := GenerateToken("user-1", "asha@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	InitializeJWT("first-secret")
	token, _, err := GenerateToken("user-1", "asha@example.com", time.Hour)
	require.NoError(t, err)

	InitializeJWT("second-secret")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	InitializeJWT("test-secret-for-token-roundtrip")

	for _, tok := range []string{"", "not.a.token", "aaaa.bbbb.cccc"} {
		if _, err := ValidateToken(tok); err == nil {
			t.Errorf("ValidateToken(%q) expected error", tok)
		}
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2boogaloo")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2boogaloo", hash)

	assert.NoError(t, VerifyPassword("hunter2boogaloo", hash))
	assert.Error(t, VerifyPassword("wrong-password", hash))
}
