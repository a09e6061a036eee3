package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockapi/internal/model"
	"stockapi/internal/repository"
	"stockapi/internal/validation"

	"github.com/rs/zerolog"
)

// Service registers users, exchanges credentials for bearer tokens and
// resolves tokens back to users.
type Service interface {
	// Register validates req and creates the user. No token is issued.
	Register(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)

	// Login verifies the credentials and issues a bearer token.
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)

	// Authenticate resolves a bearer token to its user. Every failure is
	// reported as model.ErrUnauthenticated.
	Authenticate(ctx context.Context, token string) (*model.User, *Claims, error)

	// Logout revokes the token described by claims.
	Logout(ctx context.Context, claims *Claims) error
}

type service struct {
	users     repository.UserRepository
	tokens    repository.TokenRepository
	validator *validation.Validator
	hasher    PasswordHasher
	issuer    *TokenIssuer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates the credential service.
func NewService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	validator *validation.Validator,
	hasher PasswordHasher,
	issuer *TokenIssuer,
	logger zerolog.Logger,
) Service {
	return &service{
		users:     users,
		tokens:    tokens,
		validator: validator,
		hasher:    hasher,
		issuer:    issuer,
		logger:    logger.With().Str("service", "auth").Logger(),
		now:       time.Now,
	}
}

// Register creates a new user account.
func (s *service) Register(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	req.Email = strings.TrimSpace(req.Email)

	err := s.validator.Validate(ctx, req,
		validation.Unique("email", func(ctx context.Context) (bool, error) {
			if req.Email == "" {
				return false, nil
			}
			return s.users.EmailTaken(ctx, req.Email, 0)
		}),
	)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if model.IsKind(err, model.KindConflict) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user registered")

	return user, nil
}

// Login checks the credentials and returns a signed token.
func (s *service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	email := strings.TrimSpace(req.Email)

	var user *model.User
	if email != "" {
		var err error
		user, err = s.users.GetByEmail(ctx, email)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to look up user for login")
			return nil, fmt.Errorf("failed to login: %w", err)
		}
	}

	if user == nil {
		s.hasher.CompareDummy(req.Password)
		s.logger.Debug().Str("email", email).Msg("login for unknown email")
		return nil, model.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			s.logger.Debug().Int64("user_id", user.ID).Msg("login with wrong password")
			return nil, model.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to verify password")
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	token, claims, err := s.issuer.Issue(user)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to issue token")
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user logged in")

	return &model.LoginResponse{
		Message:   "Login successful",
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: claims.ExpiresAtTime(),
	}, nil
}

// Authenticate verifies token and loads its user.
func (s *service) Authenticate(ctx context.Context, token string) (*model.User, *Claims, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		s.logger.Debug().Err(err).Msg("rejected bearer token")
		return nil, nil, model.ErrUnauthenticated
	}

	jti, err := claims.TokenID()
	if err != nil {
		return nil, nil, model.ErrUnauthenticated
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, model.ErrUnauthenticated
	}

	revoked, err := s.tokens.IsRevoked(ctx, jti)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check token revocation")
		return nil, nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	if revoked {
		s.logger.Debug().Str("jti", jti.String()).Msg("revoked token presented")
		return nil, nil, model.ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to load token user")
		return nil, nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	if user == nil {
		s.logger.Debug().Int64("user_id", userID).Msg("token of deleted user presented")
		return nil, nil, model.ErrUnauthenticated
	}

	return user, claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *service) Logout(ctx context.Context, claims *Claims) error {
	jti, err := claims.TokenID()
	if err != nil {
		return model.ErrUnauthenticated
	}

	if err := s.tokens.Revoke(ctx, jti, claims.ExpiresAtTime()); err != nil {
		s.logger.Error().Err(err).Str("jti", jti.String()).Msg("failed to revoke token")
		return fmt.Errorf("failed to logout: %w", err)
	}

	purged, err := s.tokens.PurgeExpired(ctx, s.now())
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to purge expired revocations")
	} else if purged > 0 {
		s.logger.Debug().Int64("purged", purged).Msg("purged expired revocations")
	}

	s.logger.Info().Str("jti", jti.String()).Msg("token revoked")

	return nil
}
