package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	Init("test-secret", "market_chat", 10)

	token, err := GenerateAccessToken(42, "alice")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "market_chat", claims.Issuer)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	Init("secret-a", "market_chat", 10)
	token, err := GenerateAccessToken(1, "bob")
	require.NoError(t, err)

	Init("secret-b", "market_chat", 10)
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseExpired(t *testing.T) {
	Init("test-secret", "market_chat", -1)
	token, err := GenerateAccessToken(1, "bob")
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}
