package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/auth"
	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/mapper"
	"github.com/woodline/crm-api/internal/repository"
)

// UserService manages accounts and role assignments.
type UserService struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// EnsureUser upserts the account for an authenticated principal and stamps
// the login time. Called on session start so the user table mirrors whoever
// the identity service lets in.
func (s *UserService) EnsureUser(ctx context.Context, userCtx *auth.UserContext) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, userCtx.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		user = &domain.User{
			ID:          userCtx.UserID,
			Email:       userCtx.Email,
			DisplayName: userCtx.DisplayName,
			Role:        userCtx.Role,
			IsActive:    true,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		s.logger.Info("user provisioned",
			zap.String("user_id", user.ID),
			zap.String("role", string(user.Role)))
	}

	if err := s.userRepo.TouchLogin(ctx, user.ID, time.Now()); err != nil {
		s.logger.Warn("failed to stamp login time",
			zap.String("user_id", user.ID), zap.Error(err))
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// GetByID returns one user.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// List returns users, ordered by name.
func (s *UserService) List(ctx context.Context, activeOnly bool) ([]domain.UserDTO, error) {
	users, err := s.userRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	return dtos, nil
}

// UpdateRole assigns a user's role. Admin only; an admin cannot demote
// themselves so the system never locks out its last administrator.
func (s *UserService) UpdateRole(ctx context.Context, id string, req *domain.UpdateUserRoleRequest) (*domain.UserDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.CanManageUsers() {
		return nil, ErrPermissionDenied
	}
	if !req.Role.IsValid() {
		return nil, ErrInvalidRole
	}
	if id == userCtx.UserID && req.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: cannot demote own account", ErrConflict)
	}

	if err := s.userRepo.UpdateRole(ctx, id, req.Role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.Info("user role updated",
		zap.String("user_id", id),
		zap.String("role", string(req.Role)),
		zap.String("updated_by", userCtx.UserID))
	return s.GetByID(ctx, id)
}

// SetActive activates or deactivates an account. Admin only.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) (*domain.UserDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.CanManageUsers() {
		return nil, ErrPermissionDenied
	}
	if id == userCtx.UserID && !active {
		return nil, fmt.Errorf("%w: cannot deactivate own account", ErrConflict)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.IsActive = active
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return s.GetByID(ctx, id)
}
