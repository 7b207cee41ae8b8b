package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"parkgate/backend/services/parking-service/internal/models"
	"parkgate/backend/services/parking-service/internal/repository"
)

var (
	// ErrEmailInUse is returned when registering a duplicate email.
	ErrEmailInUse = errors.New("auth: email already registered")
	// ErrInvalidCredentials represents login failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// UserRepository defines the storage contract used by the service.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service contains registration and login logic.
type Service struct {
	repo      UserRepository
	hasher    Hasher
	tokenizer *TokenService
	logger    *zap.Logger
}

// NewService builds the auth service.
func NewService(repo UserRepository, hasher Hasher, tokenizer *TokenService, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		hasher:    hasher,
		tokenizer: tokenizer,
		logger:    logger,
	}
}

// Signup registers a new user.
func (s *Service) Signup(ctx context.Context, email, password, role string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("auth: email required")
	}
	if password == "" {
		return nil, errors.New("auth: password required")
	}
	if role == "" {
		role = models.RoleUser
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return user, nil
}

// Login authenticates a user and produces a JWT.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokenizer.GenerateToken(user.ID, user.Role, user.CanManageSessions())
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}
