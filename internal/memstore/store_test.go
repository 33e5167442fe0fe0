package memstore_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpac/rpac/internal/memstore"
	"github.com/rpac/rpac/internal/shared"
	"github.com/rpac/rpac/internal/users"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	email := "bob@example.com"
	bob, err := s.CreateUser(ctx, users.NewUser{Username: "bob", PasswordHash: "h", Email: &email})
	require.NoError(t, err)
	assert.Equal(t, int64(1), bob.ID)
	assert.False(t, bob.CreatedAt.IsZero())

	_, err = s.CreateUser(ctx, users.NewUser{Username: "bob", PasswordHash: "h2"})
	assert.ErrorIs(t, err, shared.ErrDuplicateUsername)

	got, err := s.UserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob, got)

	_, err = s.UserByID(ctx, 2)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = s.UserByUsername(ctx, "Bob")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRelations(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	u, err := s.CreateUser(ctx, users.NewUser{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	editor, err := s.CreateRole(ctx, "editor", nil)
	require.NoError(t, err)
	admin, err := s.CreateRole(ctx, "admin", nil)
	require.NoError(t, err)
	_, err = s.CreateRole(ctx, "admin", nil)
	assert.ErrorIs(t, err, shared.ErrDuplicateName)

	names, err := s.AddUserRole(ctx, u.ID, editor.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"editor"}, names)
	names, err = s.AddUserRole(ctx, u.ID, admin.ID)
	require.NoError(t, err)
	names, err = s.AddUserRole(ctx, u.ID, editor.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"editor", "admin"}, names)

	_, err = s.AddUserRole(ctx, 99, editor.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = s.AddUserRole(ctx, u.ID, 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	write, err := s.CreatePermission(ctx, "docs.write", nil)
	require.NoError(t, err)
	read, err := s.CreatePermission(ctx, "docs.read", nil)
	require.NoError(t, err)

	perms, err := s.AddRolePermission(ctx, editor.ID, write.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs.write"}, perms)
	_, err = s.AddRolePermission(ctx, editor.ID, read.ID)
	require.NoError(t, err)
	_, err = s.AddRolePermission(ctx, admin.ID, read.ID)
	require.NoError(t, err)
	_, err = s.AddRolePermission(ctx, admin.ID, 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	all, err := s.UserPermissionNames(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs.read", "docs.write"}, all)

	none, err := s.UserPermissionNames(ctx, 42)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestConcurrentRegistration(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreateUser(ctx, users.NewUser{Username: fmt.Sprintf("u%d", i%10), PasswordHash: "h"})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var dup int
	for err := range errs {
		if err != nil {
			require.ErrorIs(t, err, shared.ErrDuplicateUsername)
			dup++
		}
	}
	assert.Equal(t, 10, dup)
}
