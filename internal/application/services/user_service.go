package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/restoreview/core/internal/domain/entities"
	"github.com/restoreview/core/internal/infrastructure/logger"
	"github.com/restoreview/core/internal/ports"
)

// UserService handles user-related operations
type UserService struct {
	userRepo ports.UserRepository
	validate *validator.Validate
	logger   *logger.Logger
	now      func() time.Time
}

var _ ports.UserService = (*UserService)(nil)

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, v *validator.Validate, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		validate: v,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterUser creates a new user
func (s *UserService) RegisterUser(ctx context.Context, req ports.CreateUserRequest) (*entities.User, error) {
	if err := ValidateStruct(s.validate, req); err != nil {
		return nil, err
	}

	user := entities.User{
		Username:  req.Username,
		Email:     req.Email,
		CreatedAt: s.now().UTC().Truncate(time.Second),
	}

	if req.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashedPassword)
	}

	created, err := s.userRepo.AddUniqueUser(user)
	if err != nil {
		if errors.Is(err, entities.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infow("User created", "user_id", created.ID, "username", created.Username)

	// Remove password hash from response
	created.PasswordHash = ""

	return &created, nil
}

// ListUsers returns every user without password hashes
func (s *UserService) ListUsers(ctx context.Context) ([]entities.User, error) {
	users := s.userRepo.ListUsers()
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}
