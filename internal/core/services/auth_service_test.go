package services

import (
	"context"
	"testing"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/adapters/persistence/repositories"
	"library-loanhub/internal/adapters/persistence/testdb"
	"library-loanhub/internal/config"
	"library-loanhub/internal/core/domain"
	"library-loanhub/internal/pkg/jwt"
	"library-loanhub/internal/pkg/password"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T) (*AuthService, repositories.UserRepository) {
	t.Helper()
	users := repositories.NewUserRepository(testdb.Open(t))
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", AccessTokenMins: 15}}
	return NewAuthService(users, cfg), users
}

func addUser(t *testing.T, users repositories.UserRepository, username, plain string, active bool) *models.User {
	t.Helper()
	hash, err := password.HashWithCost(plain, bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Username: username, FullName: username, Password: hash, Role: domain.RoleLibrarian, IsActive: active}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestLogin(t *testing.T) {
	svc, users := newAuthService(t)
	u := addUser(t, users, "desk1", "correct-horse", true)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &LoginInput{Username: " desk1 ", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.User.ID)
	assert.Equal(t, 900, resp.ExpiresIn)

	claims, err := jwt.ValidateAccessToken(resp.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, string(domain.RoleLibrarian), claims.Role)
	assert.NotEmpty(t, claims.ID)

	me, err := svc.GetCurrentUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "desk1", me.Username)
}

func TestLoginFailures(t *testing.T) {
	svc, users := newAuthService(t)
	addUser(t, users, "desk1", "correct-horse", true)
	addUser(t, users, "retired", "correct-horse", false)
	ctx := context.Background()

	tests := []struct {
		name  string
		input LoginInput
		want  error
	}{
		{"empty", LoginInput{}, domain.ErrInvalidInput},
		{"unknown user", LoginInput{Username: "ghost", Password: "whatever"}, domain.ErrInvalidCredentials},
		{"wrong password", LoginInput{Username: "desk1", Password: "nope-nope"}, domain.ErrInvalidCredentials},
		{"inactive", LoginInput{Username: "retired", Password: "correct-horse"}, domain.ErrUserInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, &tt.input)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
