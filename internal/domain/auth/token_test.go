package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", Role: RoleSupervisor, GroupID: "sector-a"}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, UserContext{UserID: "u1", Role: RoleSupervisor, GroupID: "sector-a"}, claims.User())
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", Role: RoleAdmin}, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.Error(t, err)
}

func TestParseTokenRejectsUnknownRole(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", Role: "USER"}, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", Role: RoleAdmin}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.Error(t, err)
}
