package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestJWTRoundTrip(t *testing.T) {
	Init("test-secret", "1h")

	token, err := GenerateJWT("u1", "manager@branch.example", "branch_manager", "sess-1")
	require.NoError(t, err)

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "manager@branch.example", claims.Email)
	assert.Equal(t, "branch_manager", claims.Role)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestParseRejectsTokenSignedWithOtherSecret(t *testing.T) {
	Init("secret-one", "1h")
	token, err := GenerateJWT("u1", "a@b.c", "hq_admin", "sess-1")
	require.NoError(t, err)

	Init("secret-two", "1h")
	_, err = ParseJWT(token)
	assert.Error(t, err)
}
