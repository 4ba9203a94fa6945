package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := HashWithCost("shelf-secret", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, Verify("shelf-secret", hash))
	assert.False(t, Verify("shelf-secrets", hash))
	assert.False(t, Verify("shelf-secret", "not-a-hash"))
}

func TestValidatePassword(t *testing.T) {
	assert.False(t, ValidatePassword("short"))
	assert.True(t, ValidatePassword("long enough"))
}
