package services

import (
	"context"
	"log"
	"strings"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/adapters/persistence/repositories"
	"library-loanhub/internal/core/domain"
	"library-loanhub/internal/pkg/pagination"
	"library-loanhub/internal/pkg/password"

	"github.com/pkg/errors"
)

// StaffService manages librarian, cashier and admin accounts
type StaffService struct {
	userRepo repositories.UserRepository
}

// NewStaffService creates a new staff service
func NewStaffService(userRepo repositories.UserRepository) *StaffService {
	return &StaffService{userRepo: userRepo}
}

// CreateStaffInput represents a new staff account
type CreateStaffInput struct {
	Username string      `json:"username"`
	FullName string      `json:"full_name"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// UpdateStaffInput carries the fields an admin may change
type UpdateStaffInput struct {
	FullName *string      `json:"full_name"`
	Role     *domain.Role `json:"role"`
	IsActive *bool        `json:"is_active"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ListStaff lists accounts one page at a time
func (s *StaffService) ListStaff(ctx context.Context, params *pagination.Params) (*pagination.Response, error) {
	users, total, err := s.userRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, domain.Storage(err)
	}

	out := make([]*models.UserResponse, len(users))
	for i, user := range users {
		out[i] = user.ToResponse()
	}
	return pagination.NewResponse(out, params, total), nil
}

// GetStaff gets an account by ID
func (s *StaffService) GetStaff(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Storage(err)
	}
	return user.ToResponse(), nil
}

// CreateStaff opens a new active account
func (s *StaffService) CreateStaff(ctx context.Context, input *CreateStaffInput) (*models.UserResponse, error) {
	username := strings.TrimSpace(input.Username)
	fullName := strings.TrimSpace(input.FullName)
	if username == "" || fullName == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "username and full_name are required")
	}
	if !input.Role.Valid() {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "unknown role %q", input.Role)
	}
	if !password.ValidatePassword(input.Password) {
		return nil, errors.Wrapf(domain.ErrWeakPassword, "at least %d characters", password.MinLength)
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, domain.Storage(err)
	}
	if exists {
		return nil, errors.Wrapf(domain.ErrUsernameTaken, "username %q", username)
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := &models.User{
		Username: username,
		FullName: fullName,
		Password: hashed,
		Role:     input.Role,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, domain.Storage(err)
	}

	log.Printf("👤 Staff account created: %s (%s)", user.Username, user.Role)
	return user.ToResponse(), nil
}

// UpdateStaff changes name, role or status. Admins cannot demote or disable
// themselves, and the last active admin stays an active admin.
func (s *StaffService) UpdateStaff(ctx context.Context, id, adminID uint, input *UpdateStaffInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Storage(err)
	}

	if id == adminID && (input.Role != nil || input.IsActive != nil) {
		return nil, domain.ErrCannotModifySelf
	}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, errors.Wrap(domain.ErrInvalidInput, "full_name cannot be empty")
		}
		user.FullName = name
	}

	demoting := false
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, errors.Wrapf(domain.ErrInvalidInput, "unknown role %q", *input.Role)
		}
		demoting = user.Role == domain.RoleAdmin && *input.Role != domain.RoleAdmin
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		if user.Role == domain.RoleAdmin && user.IsActive && !*input.IsActive {
			demoting = true
		}
		user.IsActive = *input.IsActive
	}

	if demoting {
		admins, err := s.userRepo.CountActiveByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return nil, domain.Storage(err)
		}
		if admins <= 1 {
			return nil, domain.ErrLastAdmin
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, domain.Storage(err)
	}
	return user.ToResponse(), nil
}

// ChangePassword replaces the caller's own password
func (s *StaffService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return domain.Storage(err)
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return domain.ErrOldPasswordWrong
	}
	if !password.ValidatePassword(input.NewPassword) {
		return errors.Wrapf(domain.ErrWeakPassword, "at least %d characters", password.MinLength)
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	user.Password = hashed
	return domain.Storage(s.userRepo.Update(ctx, user))
}
