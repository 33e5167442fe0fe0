// Package memstore is a process-local credential store used by tests and by
// STORE_DRIVER=memory. It satisfies the users, roles and rbac repository ports.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rpac/rpac/internal/rbac"
	"github.com/rpac/rpac/internal/roles"
	"github.com/rpac/rpac/internal/shared"
	"github.com/rpac/rpac/internal/users"
)

// Store keeps every entity in maps guarded by a single mutex. Relation slices
// preserve insertion order.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	nextUser, nextRole, nextPerm int64

	users     map[int64]users.User
	usernames map[string]int64
	roles     map[int64]roles.Role
	roleNames map[string]int64
	perms     map[int64]rbac.Permission
	permNames map[string]int64
	userRoles map[int64][]int64
	rolePerms map[int64][]int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		now:       time.Now,
		users:     make(map[int64]users.User),
		usernames: make(map[string]int64),
		roles:     make(map[int64]roles.Role),
		roleNames: make(map[string]int64),
		perms:     make(map[int64]rbac.Permission),
		permNames: make(map[string]int64),
		userRoles: make(map[int64][]int64),
		rolePerms: make(map[int64][]int64),
	}
}

// UserByID implements users.RepositoryPort.
func (s *Store) UserByID(_ context.Context, id int64) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return users.User{}, fmt.Errorf("user %d: %w", id, shared.ErrNotFound)
	}
	return u, nil
}

// UserByUsername implements users.RepositoryPort.
func (s *Store) UserByUsername(_ context.Context, username string) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernames[username]
	if !ok {
		return users.User{}, fmt.Errorf("user %q: %w", username, shared.ErrNotFound)
	}
	return s.users[id], nil
}

// CreateUser implements users.RepositoryPort.
func (s *Store) CreateUser(_ context.Context, nu users.NewUser) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usernames[nu.Username]; taken {
		return users.User{}, fmt.Errorf("user %q: %w", nu.Username, shared.ErrDuplicateUsername)
	}
	s.nextUser++
	now := s.now().UTC()
	u := users.User{
		ID:           s.nextUser,
		Username:     nu.Username,
		PasswordHash: nu.PasswordHash,
		Email:        nu.Email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	s.usernames[u.Username] = u.ID
	return u, nil
}

// AddUserRole implements users.RepositoryPort.
func (s *Store) AddUserRole(_ context.Context, userID, roleID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil, fmt.Errorf("user %d: %w", userID, shared.ErrNotFound)
	}
	if _, ok := s.roles[roleID]; !ok {
		return nil, fmt.Errorf("role %d: %w", roleID, shared.ErrNotFound)
	}
	s.userRoles[userID] = appendUnique(s.userRoles[userID], roleID)
	return s.roleNamesLocked(userID), nil
}

// UserRoleNames implements users.RepositoryPort.
func (s *Store) UserRoleNames(_ context.Context, userID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roleNamesLocked(userID), nil
}

// RoleByID implements roles.RepositoryPort.
func (s *Store) RoleByID(_ context.Context, id int64) (roles.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	if !ok {
		return roles.Role{}, fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	return r, nil
}

// RoleByName implements roles.RepositoryPort.
func (s *Store) RoleByName(_ context.Context, name string) (roles.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.roleNames[name]
	if !ok {
		return roles.Role{}, fmt.Errorf("role %q: %w", name, shared.ErrNotFound)
	}
	return s.roles[id], nil
}

// CreateRole implements roles.RepositoryPort.
func (s *Store) CreateRole(_ context.Context, name string, description *string) (roles.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.roleNames[name]; taken {
		return roles.Role{}, fmt.Errorf("role %q: %w", name, shared.ErrDuplicateName)
	}
	s.nextRole++
	now := s.now().UTC()
	r := roles.Role{ID: s.nextRole, Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
	s.roles[r.ID] = r
	s.roleNames[name] = r.ID
	return r, nil
}

// AddRolePermission implements roles.RepositoryPort.
func (s *Store) AddRolePermission(_ context.Context, roleID, permissionID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID]; !ok {
		return nil, fmt.Errorf("role %d: %w", roleID, shared.ErrNotFound)
	}
	if _, ok := s.perms[permissionID]; !ok {
		return nil, fmt.Errorf("permission %d: %w", permissionID, shared.ErrNotFound)
	}
	s.rolePerms[roleID] = appendUnique(s.rolePerms[roleID], permissionID)
	names := make([]string, 0, len(s.rolePerms[roleID]))
	for _, pid := range s.rolePerms[roleID] {
		names = append(names, s.perms[pid].Name)
	}
	return names, nil
}

// PermissionByID implements rbac.RepositoryPort.
func (s *Store) PermissionByID(_ context.Context, id int64) (rbac.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.perms[id]
	if !ok {
		return rbac.Permission{}, fmt.Errorf("permission %d: %w", id, shared.ErrNotFound)
	}
	return p, nil
}

// PermissionByName implements rbac.RepositoryPort.
func (s *Store) PermissionByName(_ context.Context, name string) (rbac.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.permNames[name]
	if !ok {
		return rbac.Permission{}, fmt.Errorf("permission %q: %w", name, shared.ErrNotFound)
	}
	return s.perms[id], nil
}

// CreatePermission implements rbac.RepositoryPort.
func (s *Store) CreatePermission(_ context.Context, name string, description *string) (rbac.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.permNames[name]; taken {
		return rbac.Permission{}, fmt.Errorf("permission %q: %w", name, shared.ErrDuplicateName)
	}
	s.nextPerm++
	now := s.now().UTC()
	p := rbac.Permission{ID: s.nextPerm, Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
	s.perms[p.ID] = p
	s.permNames[name] = p.ID
	return p, nil
}

// UserPermissionNames implements rbac.RepositoryPort. Names are distinct and sorted.
func (s *Store) UserPermissionNames(_ context.Context, userID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	names := []string{}
	for _, rid := range s.userRoles[userID] {
		for _, pid := range s.rolePerms[rid] {
			name := s.perms[pid].Name
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) roleNamesLocked(userID int64) []string {
	names := make([]string, 0, len(s.userRoles[userID]))
	for _, rid := range s.userRoles[userID] {
		names = append(names, s.roles[rid].Name)
	}
	return names
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

var (
	_ users.RepositoryPort = (*Store)(nil)
	_ roles.RepositoryPort = (*Store)(nil)
	_ rbac.RepositoryPort  = (*Store)(nil)
)
