package service

import (
	"context"
	"fmt"
	"strings"

	"stockapi/internal/auth"
	"stockapi/internal/model"
	"stockapi/internal/repository"
	"stockapi/internal/validation"

	"github.com/rs/zerolog"
)

// userService implements UserService.
type userService struct {
	userRepo  repository.UserRepository
	validator *validation.Validator
	hasher    auth.PasswordHasher
	logger    zerolog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	validator *validation.Validator,
	hasher auth.PasswordHasher,
	logger zerolog.Logger,
) UserService {
	return &userService{
		userRepo:  userRepo,
		validator: validator,
		hasher:    hasher,
		logger:    logger.With().Str("service", "user").Logger(),
	}
}

// List retrieves every user.
func (s *userService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	s.logger.Debug().Int("count", len(users)).Msg("retrieved users")

	return users, nil
}

// GetByID retrieves a single user by ID.
func (s *userService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, model.ErrUserNotFound
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user == nil {
		return nil, model.ErrUserNotFound
	}

	return user, nil
}

// Create validates the request and creates a user.
func (s *userService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	req.Email = strings.TrimSpace(req.Email)

	if err := s.validator.Validate(ctx, req, s.uniqueEmail(req.Email, 0)); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user created")

	return user, nil
}

// Update overwrites every mutable field of the user.
func (s *userService) Update(ctx context.Context, id int64, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Email = strings.TrimSpace(req.Email)

	if err := s.validator.Validate(ctx, req, s.uniqueEmail(req.Email, id)); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to hash password")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user.Name = req.Name
	user.Email = req.Email
	user.PasswordHash = hash

	if err := s.userRepo.Update(ctx, user); err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to update user")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info().Int64("user_id", id).Msg("user updated")

	return user, nil
}

// Delete removes a user.
func (s *userService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return model.ErrUserNotFound
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if isDomainError(err) {
			return err
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to delete user")
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info().Int64("user_id", id).Msg("user deleted")

	return nil
}

func (s *userService) uniqueEmail(email string, exceptID int64) validation.Check {
	return validation.Unique("email", func(ctx context.Context) (bool, error) {
		if email == "" {
			return false, nil
		}
		return s.userRepo.EmailTaken(ctx, email, exceptID)
	})
}
