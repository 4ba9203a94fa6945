package services

import (
	"context"
	"log"
	"strings"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/adapters/persistence/repositories"
	"library-loanhub/internal/config"
	"library-loanhub/internal/core/domain"
	"library-loanhub/internal/pkg/jwt"
	"library-loanhub/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// AuthService handles staff authentication
type AuthService struct {
	userRepo repositories.UserRepository
	cfg      *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repositories.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User        *models.UserResponse `json:"user"`
	AccessToken string               `json:"access_token"`
	ExpiresIn   int                  `json:"expires_in"`
}

// Login authenticates a staff user
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "username and password are required")
	}

	// 1. Find user; unknown users get the same answer as bad passwords
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.Storage(err)
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	// 3. Verify password
	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 4. Issue access token
	token, err := jwt.GenerateAccessToken(
		user.ID,
		user.Username,
		string(user.Role),
		uuid.New().String(),
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s (%s)", user.Username, user.Role)

	return &AuthResponse{
		User:        user.ToResponse(),
		AccessToken: token,
		ExpiresIn:   s.cfg.JWT.AccessTokenMins * 60,
	}, nil
}

// GetCurrentUser gets current user info
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.Storage(err)
	}
	return user.ToResponse(), nil
}
