package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/berauto/backend/internal/domain"
	"github.com/berauto/backend/internal/repo"
)

// UserService implements admin user management.
type UserService struct {
	users repo.UserRepo
}

// NewUserService constructs a UserService backed by the provided UserRepo.
func NewUserService(users repo.UserRepo) *UserService {
	return &UserService{users: users}
}

// List returns all registered users. Always returns a non-nil slice.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.UserService.List: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// AssignRole sets a user's role. Only admins may call this, and an admin may
// not change their own role, so roles are never self-escalated even when the
// caller reaches this code without going through the route policy.
func (s *UserService) AssignRole(ctx context.Context, actor Actor, userID uuid.UUID, role domain.Role) (domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return domain.User{}, fmt.Errorf("%w: only admins assign roles", domain.ErrForbidden)
	}
	if actor.ID == userID {
		return domain.User{}, fmt.Errorf("%w: admins may not change their own role", domain.ErrForbidden)
	}
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	updated, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.AssignRole: %w", err)
	}
	return updated, nil
}
