package services

import (
	"testing"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/core/domain"
	"library-loanhub/internal/pkg/pagination"
	"library-loanhub/internal/pkg/password"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStaff(t *testing.T) {
	f := newFixture(t)
	staff := NewStaffService(f.store.Users)

	created, err := staff.CreateStaff(f.ctx, &CreateStaffInput{
		Username: " desk2 ", FullName: "Desk Two", Password: "longenough", Role: domain.RoleLibrarian,
	})
	require.NoError(t, err)
	assert.Equal(t, "desk2", created.Username)
	assert.True(t, created.IsActive)

	stored, err := f.store.Users.GetByUsername(f.ctx, "desk2")
	require.NoError(t, err)
	assert.True(t, password.Verify("longenough", stored.Password))

	tests := []struct {
		name  string
		input CreateStaffInput
		want  error
	}{
		{"duplicate", CreateStaffInput{Username: "desk2", FullName: "X", Password: "longenough", Role: domain.RoleCashier}, domain.ErrUsernameTaken},
		{"short password", CreateStaffInput{Username: "x", FullName: "X", Password: "short", Role: domain.RoleCashier}, domain.ErrWeakPassword},
		{"unknown role", CreateStaffInput{Username: "x", FullName: "X", Password: "longenough", Role: "JANITOR"}, domain.ErrInvalidInput},
		{"missing name", CreateStaffInput{Username: "x", Password: "longenough", Role: domain.RoleCashier}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := staff.CreateStaff(f.ctx, &tt.input)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestUpdateStaffGuardsAdmins(t *testing.T) {
	f := newFixture(t)
	staff := NewStaffService(f.store.Users)
	admin := f.user("root", domain.RoleAdmin)
	desk := f.user("desk", domain.RoleLibrarian)

	promoted := domain.RoleAdmin
	updated, err := staff.UpdateStaff(f.ctx, desk.ID, admin.ID, &UpdateStaffInput{Role: &promoted})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	inactive := false
	_, err = staff.UpdateStaff(f.ctx, admin.ID, admin.ID, &UpdateStaffInput{IsActive: &inactive})
	assert.True(t, errors.Is(err, domain.ErrCannotModifySelf), "got %v", err)

	// two admins: disabling one is fine, the last one is kept
	_, err = staff.UpdateStaff(f.ctx, desk.ID, admin.ID, &UpdateStaffInput{IsActive: &inactive})
	require.NoError(t, err)

	demoted := domain.RoleCashier
	_, err = staff.UpdateStaff(f.ctx, admin.ID, desk.ID, &UpdateStaffInput{Role: &demoted})
	assert.True(t, errors.Is(err, domain.ErrLastAdmin), "got %v", err)

	_, err = staff.UpdateStaff(f.ctx, 404, admin.ID, &UpdateStaffInput{})
	assert.True(t, errors.Is(err, domain.ErrUserNotFound), "got %v", err)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	staff := NewStaffService(f.store.Users)
	hash, err := password.HashWithCost("original-pass", 4)
	require.NoError(t, err)
	u := f.user("desk", domain.RoleLibrarian)
	u.Password = hash
	require.NoError(t, f.store.Users.Update(f.ctx, u))

	err = staff.ChangePassword(f.ctx, u.ID, &ChangePasswordInput{OldPassword: "wrong", NewPassword: "replacement"})
	assert.True(t, errors.Is(err, domain.ErrOldPasswordWrong), "got %v", err)

	err = staff.ChangePassword(f.ctx, u.ID, &ChangePasswordInput{OldPassword: "original-pass", NewPassword: "short"})
	assert.True(t, errors.Is(err, domain.ErrWeakPassword), "got %v", err)

	require.NoError(t, staff.ChangePassword(f.ctx, u.ID, &ChangePasswordInput{OldPassword: "original-pass", NewPassword: "replacement"}))
	stored, err := f.store.Users.GetByID(f.ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, password.Verify("replacement", stored.Password))
}

func TestListStaffPages(t *testing.T) {
	f := newFixture(t)
	staff := NewStaffService(f.store.Users)
	for _, name := range []string{"c", "a", "b"} {
		f.user(name, domain.RoleCashier)
	}

	page, err := staff.ListStaff(f.ctx, pagination.NewParams(1, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Meta.Total)
	assert.True(t, page.Meta.HasNext)

	users := page.Data.([]*models.UserResponse)
	require.Len(t, users, 2)
	assert.Equal(t, "a", users[0].Username)
	assert.Equal(t, "b", users[1].Username)
}
