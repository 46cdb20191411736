package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"volunteerhub/internal/adapters/persistence/models"
	"volunteerhub/internal/adapters/persistence/repositories"
	"volunteerhub/internal/core/domain"

	"gorm.io/gorm"
)

// UserService handles user management outside the auth flows
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// UpdateProfileInput represents profile self-edit input
type UpdateProfileInput struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// GetProfile gets a user's own profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateProfile updates a user's own name and phone
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, domain.ErrInvalidInput
		}
		fields["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		fields["phone"] = strings.TrimSpace(*input.Phone)
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, user.ID, fields); err != nil {
			return nil, err
		}
	}

	updated, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return updated.ToResponse(), nil
}

// ListUsers lists users with optional role filter. Requires any management
// capability because the list backs the assignment pickers.
func (s *UserService) ListUsers(ctx context.Context, actor domain.Actor, role string, offset, limit int) ([]*models.UserResponse, int64, error) {
	if !domain.Authorize(actor, domain.PermManageVolunteers) && !domain.Authorize(actor, domain.PermManageTaskAssignment) {
		return nil, 0, domain.ErrForbidden
	}
	if role != "" && !domain.Role(role).IsValid() {
		return nil, 0, domain.ErrInvalidInput
	}

	users, total, err := s.userRepo.List(ctx, role, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*models.UserResponse, len(users))
	for i, u := range users {
		out[i] = u.ToResponse()
	}
	return out, total, nil
}

// GetPermissions returns the effective permission set of the actor,
// including implied permissions. Admin-only endpoint surface; other roles
// have no permission concept and get an empty set.
func (s *UserService) GetPermissions(actor domain.Actor) []string {
	return domain.EffectivePermissions(actor)
}

// SetPermissions replaces the permission set of an admin user. Only
// superadmin may grant; permissions never apply to non-admin targets.
func (s *UserService) SetPermissions(ctx context.Context, actor domain.Actor, targetID uint, permissions []string) (*models.UserResponse, error) {
	if actor.Role != domain.RoleSuperadmin {
		return nil, domain.ErrForbidden
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if target.Role != string(domain.RoleAdmin) {
		return nil, domain.ErrInvalidInput
	}

	for _, p := range permissions {
		if !isKnownPermission(p) {
			return nil, domain.ErrInvalidInput
		}
	}

	target.Permissions = permissions
	if err := s.userRepo.Update(ctx, target); err != nil {
		return nil, err
	}

	log.Printf("✅ Permissions updated for user %d by user %d", targetID, actor.UserID)
	return target.ToResponse(), nil
}

// Deactivate soft-disables a user. Admin accounts are never hard deleted;
// disabling keeps the audit trail intact.
func (s *UserService) Deactivate(ctx context.Context, actor domain.Actor, targetID uint) error {
	if actor.Role != domain.RoleSuperadmin && actor.Role != domain.RoleDeveloper {
		return domain.ErrForbidden
	}
	if targetID == actor.UserID {
		return domain.ErrInvalidInput
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	if err := s.userRepo.UpdateFields(ctx, target.ID, map[string]interface{}{
		"is_active": false,
	}); err != nil {
		return err
	}

	log.Printf("✅ User %d deactivated by user %d", targetID, actor.UserID)
	return nil
}

func isKnownPermission(p string) bool {
	for _, k := range domain.KnownPermissions {
		if k == p {
			return true
		}
	}
	return false
}
