package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/model"
	"go-pos-checkout/internal/repository"
	"go-pos-checkout/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

// RoleMismatchError is returned when an account logs in under a role it
// does not hold.
type RoleMismatchError struct {
	Role string
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf("This account is not authorized as %s", e.Role)
}

type AuthService interface {
	Login(ctx context.Context, name, password, role string) (*LoginResponse, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error)
	ChangePassword(ctx context.Context, name, oldPassword, newPassword string) error
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo repository.UserRepository
	register *RegisterService
	log      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, register *RegisterService, log *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		register: register,
		log:      log,
	}
}

func (s *authService) Login(ctx context.Context, name, password, role string) (*LoginResponse, error) {
	const op = "auth.login"

	// 1. Find user
	user, err := s.userRepo.FindByName(ctx, name)
	if err != nil {
		return nil, apperr.Validation(op, ErrInvalidCredentials)
	}

	// 2. Active and password
	if !user.IsActive {
		return nil, apperr.Validation(op, ErrUserInactive)
	}
	if !user.CheckPassword(password) {
		return nil, apperr.Validation(op, ErrInvalidCredentials)
	}

	// 3. The selected role must be the account's role
	if role != "" && role != user.Role {
		return nil, apperr.Validation(op, &RoleMismatchError{Role: role})
	}

	// 4. Single session: rotate the token version
	version := uuid.New().String()
	now := time.Now()
	if err := s.userRepo.StartSession(ctx, user.ID, version, now); err != nil {
		return nil, apperr.Persistence(op, fmt.Errorf("failed to update session: %w", err))
	}
	if user.TokenVersion != "" {
		s.register.Close(user.TokenVersion)
	}
	user.TokenVersion = version
	user.LastLoginAt = &now

	// 5. Token
	token, err := jwt.GenerateToken(user.ID, user.Name, user.Role, user.Privileges(), version)
	if err != nil {
		return nil, apperr.Persistence(op, errors.New("failed to generate token"))
	}

	// 6. Register session keyed by token version
	s.register.Session(version, user.DisplayName())
	s.log.Info("user logged in", zap.String("user", user.Name), zap.String("role", user.Role))

	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Privileges: user.Privileges(),
	}, nil
}

// Logout closes the register session and invalidates the token.
func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	s.register.Close(claims.TokenVersion)
	if err := s.userRepo.UpdateTokenVersion(ctx, claims.UserID, ""); err != nil {
		return apperr.Persistence("auth.logout", err)
	}
	s.log.Info("user logged out", zap.String("user", claims.Name))
	return nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error) {
	const op = "auth.validate"

	// 1. Signature and expiry
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, apperr.Validation(op, err)
	}

	// 2. User still exists and is active
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperr.NotFound(op, ErrUserNotFound)
	}
	if !user.IsActive {
		return nil, apperr.Validation(op, ErrUserInactive)
	}

	// 3. Strict session check
	if user.TokenVersion != claims.TokenVersion {
		return nil, apperr.Validation(op, ErrSessionReplaced)
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Privileges: user.Privileges(),
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, name, oldPassword, newPassword string) error {
	const op = "auth.change_password"

	user, err := s.userRepo.FindByName(ctx, name)
	if err != nil {
		return apperr.NotFound(op, ErrUserNotFound)
	}
	if !user.CheckPassword(oldPassword) {
		return apperr.Validation(op, ErrWrongPassword)
	}
	if len(newPassword) < MinPasswordLength {
		return apperr.Validation(op, ErrPasswordTooShort)
	}
	if err := user.SetPassword(newPassword); err != nil {
		return apperr.Persistence(op, errors.New("failed to hash new password"))
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return apperr.Persistence(op, err)
	}
	return nil
}
