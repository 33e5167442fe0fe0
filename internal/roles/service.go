package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpac/rpac/internal/rbac"
	"github.com/rpac/rpac/internal/shared"
)

// PermissionLookup resolves permissions by id.
type PermissionLookup interface {
	PermissionByID(ctx context.Context, id int64) (rbac.Permission, error)
}

// Service handles role business logic.
type Service struct {
	repo        RepositoryPort
	permissions PermissionLookup
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, permissions PermissionLookup) *Service {
	return &Service{repo: repo, permissions: permissions}
}

// CreateRole inserts a new role after checking the name is free.
func (s *Service) CreateRole(ctx context.Context, name string, description *string) (Role, error) {
	name = shared.NormalizeName(name)
	if name == "" {
		return Role{}, fmt.Errorf("role name required: %w", shared.ErrValidation)
	}
	_, err := s.repo.RoleByName(ctx, name)
	switch {
	case err == nil:
		return Role{}, fmt.Errorf("role %q: %w", name, shared.ErrDuplicateName)
	case !errors.Is(err, shared.ErrNotFound):
		return Role{}, err
	}
	return s.repo.CreateRole(ctx, name, shared.OptionalString(description))
}

// RoleByID fetches a role.
func (s *Service) RoleByID(ctx context.Context, id int64) (Role, error) {
	return s.repo.RoleByID(ctx, id)
}

// AssignPermission attaches an existing permission to an existing role.
// Re-assigning a pair that already exists is a no-op.
func (s *Service) AssignPermission(ctx context.Context, roleID, permissionID int64) (RolePermissions, error) {
	role, err := s.repo.RoleByID(ctx, roleID)
	if err != nil {
		return RolePermissions{}, err
	}
	if _, err := s.permissions.PermissionByID(ctx, permissionID); err != nil {
		return RolePermissions{}, err
	}
	names, err := s.repo.AddRolePermission(ctx, roleID, permissionID)
	if err != nil {
		return RolePermissions{}, err
	}
	if names == nil {
		names = []string{}
	}
	return RolePermissions{Role: role.Name, Permissions: names}, nil
}
