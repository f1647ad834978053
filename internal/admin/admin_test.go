package admin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyToken(t *testing.T) {
	hash, err := HashToken("s3cret-operator-token")
	require.NoError(t, err)

	assert.True(t, VerifyToken(hash, "s3cret-operator-token"))
	assert.False(t, VerifyToken(hash, "wrong-token"))
	assert.False(t, VerifyToken("not-a-hash", "s3cret-operator-token"))
}

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken("test-secret", 30*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := IssueToken("test-secret", time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseExpiredToken(t *testing.T) {
	token, err := IssueToken("test-secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("test-secret", token)
	assert.Error(t, err)
}
