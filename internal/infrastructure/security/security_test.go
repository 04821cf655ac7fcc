package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorTokenRoundTrip(t *testing.T) {
	secret := "test-secret"

	token, err := GenerateOperatorToken(secret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateJWT(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims["role"])
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateOperatorToken("secret-a", time.Hour)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "secret-b")
	assert.Error(t, err)
}

func TestValidateJWTRejectsExpiredToken(t *testing.T) {
	token, err := GenerateOperatorToken("secret", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "secret")
	assert.Error(t, err)
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	_, err := ValidateJWT("not.a.token", "secret")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
	assert.False(t, VerifyPassword("", "hunter2"))
}

func TestGenerateULID(t *testing.T) {
	a := GenerateULID()
	b := GenerateULID()

	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}

func TestGenerateSecureKey(t *testing.T) {
	key, err := GenerateSecureKey(64)
	require.NoError(t, err)
	assert.Len(t, key, 64)

	other, err := GenerateSecureKey(64)
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}
