package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpac/rpac/internal/platform/db"
	"github.com/rpac/rpac/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	RoleByID(ctx context.Context, id int64) (Role, error)
	RoleByName(ctx context.Context, name string) (Role, error)
	CreateRole(ctx context.Context, name string, description *string) (Role, error)
	// AddRolePermission links the pair if absent and returns the role's
	// permission names after the change.
	AddRolePermission(ctx context.Context, roleID, permissionID int64) ([]string, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool db.Conn
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, name, description, created_at, updated_at`

// RoleByID fetches a role by primary key.
func (r *Repository) RoleByID(ctx context.Context, id int64) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	return scanRole(row, fmt.Sprintf("role %d", id))
}

// RoleByName fetches a role by its unique name.
func (r *Repository) RoleByName(ctx context.Context, name string) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
	return scanRole(row, fmt.Sprintf("role %q", name))
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, name string, description *string) (Role, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING `+roleColumns,
		name, description)
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err, "roles_name_key") {
			return Role{}, fmt.Errorf("role %q: %w", name, shared.ErrDuplicateName)
		}
		return Role{}, shared.StoreError("roles: create role", err)
	}
	return role, nil
}

// AddRolePermission attaches a permission to a role in one transaction.
func (r *Repository) AddRolePermission(ctx context.Context, roleID, permissionID int64) ([]string, error) {
	var names []string
	err := db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			roleID, permissionID); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `
			SELECT p.name
			FROM role_permissions rp
			JOIN permissions p ON p.id = rp.permission_id
			WHERE rp.role_id = $1
			ORDER BY rp.created_at, p.name`, roleID)
		if err != nil {
			return err
		}
		names, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	if err != nil {
		return nil, shared.StoreError("roles: add permission", err)
	}
	return names, nil
}

func scanRole(row pgx.Row, what string) (Role, error) {
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, fmt.Errorf("%s: %w", what, shared.ErrNotFound)
		}
		return Role{}, shared.StoreError("roles: get role", err)
	}
	return role, nil
}

var _ RepositoryPort = (*Repository)(nil)
