package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/campushub/campushub-backend/internal/models"
	"github.com/campushub/campushub-backend/internal/repository"
)

var (
	// ErrInvalidCredentials is returned when email or password is wrong
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserInactive is returned when the account is disabled
	ErrUserInactive = errors.New("user account is inactive")
	// ErrEmailTaken is returned when the email is already registered
	ErrEmailTaken = errors.New("email is already registered")
)

// Service handles authentication operations
type Service struct {
	users repository.UserRepository
	jwt   *JWTService
}

// NewService creates a new auth service
func NewService(users repository.UserRepository, jwtSecret string) *Service {
	return &Service{
		users: users,
		jwt:   NewJWTService(jwtSecret, "campushub"),
	}
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, email, password, fullName, program string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Use the mailbox part of the email as the username
	username := email
	if at := strings.Index(email, "@"); at > 0 {
		username = email[:at]
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FullName:     fullName,
		Program:      program,
		Plan:         models.PlanFree,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and issues an access token
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrUserInactive
	}

	token, err := s.jwt.GenerateAccessToken(user.ID.String(), user.Email, user.Username, user.Plan)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		// Non-critical
		return user, token, nil
	}

	return user, token, nil
}

// ValidateAccessToken validates a token and loads the matching user
func (s *Service) ValidateAccessToken(ctx context.Context, token string) (*models.User, *JWTClaims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, nil, ErrInvalidClaims
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, nil, ErrInvalidToken
	}

	return user, claims, nil
}
