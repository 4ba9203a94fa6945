package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(7, "desk1", "LIBRARIAN", "jti-1", "secret", 5)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "LIBRARIAN", claims.Role)
	assert.Equal(t, "jti-1", claims.ID)
}

func TestAccessTokenRejections(t *testing.T) {
	token, err := GenerateAccessToken(7, "desk1", "LIBRARIAN", "jti-1", "secret", 5)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	expired, err := GenerateAccessToken(7, "desk1", "LIBRARIAN", "jti-2", "secret", -5)
	require.NoError(t, err)
	_, err = ValidateAccessToken(expired, "secret")
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = ValidateAccessToken("not-a-token", "secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
