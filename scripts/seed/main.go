package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/rpac/rpac/internal/app"
	"github.com/rpac/rpac/internal/auth"
	"github.com/rpac/rpac/internal/rbac"
	"github.com/rpac/rpac/internal/roles"
	"github.com/rpac/rpac/internal/shared"
	"github.com/rpac/rpac/internal/users"
)

func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.StoreDriver == app.StoreDriverMemory {
		log.Fatal("seed: STORE_DRIVER=memory keeps nothing, point PG_DSN at a database")
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("seed: SEED_ADMIN_PASSWORD must be set")
	}
	username := getenv("SEED_ADMIN_USERNAME", "admin")

	container, err := app.Wire(ctx, cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		log.Fatalf("wire: %v", err)
	}
	defer container.Close()

	fmt.Println("→ Seeding admin user...")
	user, err := ensureUser(ctx, container, username, password)
	if err != nil {
		log.Fatalf("seed user: %v", err)
	}
	fmt.Println("→ Seeding RBAC...")
	perm, err := ensurePermission(ctx, container)
	if err != nil {
		log.Fatalf("seed permission: %v", err)
	}
	role, err := ensureRole(ctx, container)
	if err != nil {
		log.Fatalf("seed role: %v", err)
	}
	if _, err := container.Services.Roles.AssignPermission(ctx, role.ID, perm.ID); err != nil {
		log.Fatalf("assign permission: %v", err)
	}
	granted, err := container.Services.Users.AssignRole(ctx, user.ID, role.ID)
	if err != nil {
		log.Fatalf("assign role: %v", err)
	}
	fmt.Printf("✓ %s (id %d) holds roles %v\n", granted.Username, user.ID, granted.Roles)
}

func ensureUser(ctx context.Context, c *app.Container, username, password string) (users.User, error) {
	user, err := c.Services.Auth.Register(ctx, auth.RegisterInput{Username: username, Password: password})
	if errors.Is(err, shared.ErrDuplicateUsername) {
		return c.Stores.Users.UserByUsername(ctx, shared.NormalizeName(username))
	}
	return user, err
}

func ensurePermission(ctx context.Context, c *app.Container) (rbac.Permission, error) {
	desc := "Manage roles, permissions and assignments"
	perm, err := c.Services.Permissions.CreatePermission(ctx, rbac.PermissionManage, &desc)
	if errors.Is(err, shared.ErrDuplicateName) {
		return c.Stores.Permissions.PermissionByName(ctx, rbac.PermissionManage)
	}
	return perm, err
}

func ensureRole(ctx context.Context, c *app.Container) (roles.Role, error) {
	desc := "Full administrative access"
	role, err := c.Services.Roles.CreateRole(ctx, "admin", &desc)
	if errors.Is(err, shared.ErrDuplicateName) {
		return c.Stores.Roles.RoleByName(ctx, "admin")
	}
	return role, err
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
