package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpac/rpac/internal/shared"
)

// Service orchestrates permission operations.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service backed by the provided repository.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreatePermission inserts a new permission after checking the name is free.
func (s *Service) CreatePermission(ctx context.Context, name string, description *string) (Permission, error) {
	name = shared.NormalizeName(name)
	if name == "" {
		return Permission{}, fmt.Errorf("permission name required: %w", shared.ErrValidation)
	}
	_, err := s.repo.PermissionByName(ctx, name)
	switch {
	case err == nil:
		return Permission{}, fmt.Errorf("permission %q: %w", name, shared.ErrDuplicateName)
	case !errors.Is(err, shared.ErrNotFound):
		return Permission{}, err
	}
	return s.repo.CreatePermission(ctx, name, shared.OptionalString(description))
}

// PermissionByID fetches a permission.
func (s *Service) PermissionByID(ctx context.Context, id int64) (Permission, error) {
	return s.repo.PermissionByID(ctx, id)
}

// EffectivePermissions returns deduplicated permission names for a user.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	perms, err := s.repo.UserPermissionNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []string{}
	}
	return perms, nil
}
