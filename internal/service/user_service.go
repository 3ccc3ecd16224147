package service

import (
	"context"
	"errors"
	"strings"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/model"
	"go-pos-checkout/internal/repository"
	"go-pos-checkout/pkg/validator"

	"gorm.io/gorm"
)

const MinPasswordLength = 6

var (
	ErrNameExists       = errors.New("username already exists")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrDeleteSelf       = errors.New("cannot delete your own account")
	ErrLastManager      = errors.New("cannot delete the last manager")
)

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, creator string) (*model.User, error)
	DeleteUser(ctx context.Context, id uint, actorID uint, actor string) error
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	EnsureDefaultManager(ctx context.Context, name, password string) (bool, error)
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,role"`
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, creator string) (*model.User, error) {
	const op = "user.create"

	// 1. Validate request
	req.Name = strings.TrimSpace(req.Name)
	if err := validator.FirstError(req); err != nil {
		return nil, apperr.Validation(op, err)
	}

	// 2. Unique name
	if existing, err := s.userRepo.FindByName(ctx, req.Name); err == nil && existing != nil {
		return nil, apperr.Validation(op, ErrNameExists)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Persistence(op, err)
	}

	// 3. Create
	user := &model.User{Name: req.Name, Role: req.Role, IsActive: true}
	user.CreatedBy = creator
	user.UpdatedBy = creator
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperr.Persistence(op, errors.New("failed to hash password"))
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperr.Persistence(op, err)
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uint, actorID uint, actor string) error {
	const op = "user.delete"

	if id == actorID {
		return apperr.Validation(op, ErrDeleteSelf)
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(op, ErrUserNotFound)
		}
		return apperr.Persistence(op, err)
	}
	if user.Role == model.RoleManager {
		n, err := s.userRepo.CountByRole(ctx, model.RoleManager)
		if err != nil {
			return apperr.Persistence(op, err)
		}
		if n <= 1 {
			return apperr.Validation(op, ErrLastManager)
		}
	}
	if err := s.userRepo.Delete(ctx, id, actor); err != nil {
		return apperr.Persistence(op, err)
	}
	return nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, apperr.Persistence("user.list", err)
	}
	out := make([]model.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return out, nil
}

// EnsureDefaultManager seeds a manager account when none exists. It reports
// whether one was created.
func (s *userService) EnsureDefaultManager(ctx context.Context, name, password string) (bool, error) {
	n, err := s.userRepo.CountByRole(ctx, model.RoleManager)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	_, err = s.CreateUser(ctx, &CreateUserRequest{Name: name, Password: password, Role: model.RoleManager}, "system")
	return err == nil, err
}
