package service

import (
	"context"
	"fmt"
	"strings"

	"meal-kart/internal/model"
	"meal-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type userService struct {
	userRepo repository.UserRepository
	logger   zerolog.Logger
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// Create registers a user. Emails are unique regardless of case.
func (s *userService) Create(ctx context.Context, in model.UserInput) (*model.User, error) {
	if in.Email == nil || strings.TrimSpace(*in.Email) == "" || in.FullName == nil || strings.TrimSpace(*in.FullName) == "" {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "email and fullName are required")
	}

	user := &model.User{Roles: []string{"customer"}}
	applyUserInput(user, in)

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID.String()).Msg("user created")
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("User not found")
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, in model.UserInput) (*model.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if (in.Email != nil && strings.TrimSpace(*in.Email) == "") || (in.FullName != nil && strings.TrimSpace(*in.FullName) == "") {
		return nil, model.NewValidationError(model.ErrCodeInvalidField, "email and fullName must not be empty")
	}

	applyUserInput(user, in)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, query string, page, pageSize int) ([]model.User, int, error) {
	page, pageSize = pagination(page, pageSize)
	users, total, err := s.userRepo.List(ctx, strings.TrimSpace(query), pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func applyUserInput(user *model.User, in model.UserInput) {
	if in.Email != nil {
		user.Email = strings.TrimSpace(*in.Email)
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		user.Phone = in.Phone
	}
	if in.Roles != nil {
		user.Roles = in.Roles
	}
	if in.Address != nil {
		user.Address = in.Address
	}
}
