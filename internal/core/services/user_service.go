package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"landstede-printlab/internal/adapters/persistence/models"
	"landstede-printlab/internal/adapters/persistence/repositories"
	"landstede-printlab/internal/core/domain"
	"landstede-printlab/internal/pkg/pagination"
	"landstede-printlab/internal/pkg/password"

	"gorm.io/gorm"
)

// UserService handles user management business logic
type UserService struct {
	userRepo   repositories.UserRepository
	creditRepo *repositories.CreditRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, creditRepo *repositories.CreditRepository) *UserService {
	return &UserService{
		userRepo:   userRepo,
		creditRepo: creditRepo,
	}
}

// UpdateProfileInput represents profile update input
type UpdateProfileInput struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// ChangePasswordInput represents password change input
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ListResult bundles a user page with pagination metadata
type ListResult struct {
	Users []*models.UserResponse `json:"users"`
	Meta  *pagination.Meta       `json:"meta"`
}

// Get returns one user with their derived credit balance
func (s *UserService) Get(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withBalance(user)
}

// List returns users with derived balances, paginated
func (s *UserService) List(ctx context.Context, params *pagination.Params) (*ListResult, error) {
	users, total, err := s.userRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	resp := make([]*models.UserResponse, 0, len(users))
	for _, user := range users {
		r, err := s.withBalance(user)
		if err != nil {
			return nil, err
		}
		resp = append(resp, r)
	}

	return &ListResult{Users: resp, Meta: pagination.GetMeta(params, total)}, nil
}

// UpdateProfile updates the caller's own profile
func (s *UserService) UpdateProfile(ctx context.Context, id uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = input.Name
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.withBalance(user)
}

// ChangePassword changes the caller's password
func (s *UserService) ChangePassword(ctx context.Context, id uint, input *ChangePasswordInput) error {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}

	if !password.Verify(input.CurrentPassword, user.Password) {
		return domain.ErrInvalidCredentials
	}
	if !password.ValidatePassword(input.NewPassword) {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	return s.userRepo.Update(ctx, user)
}

// SetRole changes a user's role (admin operation)
func (s *UserService) SetRole(ctx context.Context, id uint, role string) (*models.UserResponse, error) {
	if role != models.RoleStudent && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: role must be student or admin", domain.ErrValidation)
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ User %d role set to %s", id, role)
	return s.withBalance(user)
}

// Deactivate flags an account inactive. Accounts are never deleted: the
// ledger and job history keep referencing them.
func (s *UserService) Deactivate(ctx context.Context, id uint) error {
	if _, err := s.getUser(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.Deactivate(ctx, id); err != nil {
		return err
	}
	log.Printf("✅ User %d deactivated", id)
	return nil
}

func (s *UserService) getUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) withBalance(user *models.User) (*models.UserResponse, error) {
	balance, err := s.creditRepo.Balance(user.ID)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	resp.Credits = balance
	return resp, nil
}
