package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpac/rpac/internal/platform/db"
	"github.com/rpac/rpac/internal/shared"
)

// RepositoryPort defines persistence operations for permissions.
type RepositoryPort interface {
	PermissionByID(ctx context.Context, id int64) (Permission, error)
	PermissionByName(ctx context.Context, name string) (Permission, error)
	CreatePermission(ctx context.Context, name string, description *string) (Permission, error)
	UserPermissionNames(ctx context.Context, userID int64) ([]string, error)
}

// Repository implements RepositoryPort using PostgreSQL.
type Repository struct {
	pool db.Conn
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const permissionColumns = `id, name, description, created_at, updated_at`

// PermissionByID fetches a permission by primary key.
func (r *Repository) PermissionByID(ctx context.Context, id int64) (Permission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id)
	return scanPermission(row, fmt.Sprintf("permission %d", id))
}

// PermissionByName fetches a permission by its unique name.
func (r *Repository) PermissionByName(ctx context.Context, name string) (Permission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE name = $1`, name)
	return scanPermission(row, fmt.Sprintf("permission %q", name))
}

// CreatePermission inserts a new permission.
func (r *Repository) CreatePermission(ctx context.Context, name string, description *string) (Permission, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO permissions (name, description) VALUES ($1, $2) RETURNING `+permissionColumns,
		name, description)
	var p Permission
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err, "permissions_name_key") {
			return Permission{}, fmt.Errorf("permission %q: %w", name, shared.ErrDuplicateName)
		}
		return Permission{}, shared.StoreError("rbac: create permission", err)
	}
	return p, nil
}

// UserPermissionNames returns the deduplicated permission names granted to a user through roles.
func (r *Repository) UserPermissionNames(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT p.name
		FROM user_roles ur
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
		ORDER BY p.name`, userID)
	if err != nil {
		return nil, shared.StoreError("rbac: user permissions", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, shared.StoreError("rbac: user permissions", err)
	}
	return names, nil
}

func scanPermission(row pgx.Row, what string) (Permission, error) {
	var p Permission
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, fmt.Errorf("%s: %w", what, shared.ErrNotFound)
		}
		return Permission{}, shared.StoreError("rbac: get permission", err)
	}
	return p, nil
}

var _ RepositoryPort = (*Repository)(nil)
