package users

import (
	"context"

	"github.com/rpac/rpac/internal/roles"
)

// RoleLookup resolves roles by id.
type RoleLookup interface {
	RoleByID(ctx context.Context, id int64) (roles.Role, error)
}

// PermissionResolver resolves the effective permissions of a user.
type PermissionResolver interface {
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}

// Service handles user business logic.
type Service struct {
	repo        RepositoryPort
	roles       RoleLookup
	permissions PermissionResolver
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles RoleLookup, permissions PermissionResolver) *Service {
	return &Service{repo: repo, roles: roles, permissions: permissions}
}

// UserByID fetches a user.
func (s *Service) UserByID(ctx context.Context, id int64) (User, error) {
	return s.repo.UserByID(ctx, id)
}

// AssignRole attaches an existing role to an existing user. Re-assigning a
// role the user already holds is a no-op.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) (UserRoles, error) {
	user, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		return UserRoles{}, err
	}
	if _, err := s.roles.RoleByID(ctx, roleID); err != nil {
		return UserRoles{}, err
	}
	names, err := s.repo.AddUserRole(ctx, userID, roleID)
	if err != nil {
		return UserRoles{}, err
	}
	return UserRoles{Username: user.Username, Roles: nonNil(names)}, nil
}

// Me assembles the profile of the authenticated user.
func (s *Service) Me(ctx context.Context, userID int64) (Profile, error) {
	user, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	roleNames, err := s.repo.UserRoleNames(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	perms, err := s.permissions.EffectivePermissions(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{User: user, Roles: nonNil(roleNames), Permissions: nonNil(perms)}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
