package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpac/rpac/internal/platform/db"
	"github.com/rpac/rpac/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	UserByID(ctx context.Context, id int64) (User, error)
	UserByUsername(ctx context.Context, username string) (User, error)
	CreateUser(ctx context.Context, u NewUser) (User, error)
	// AddUserRole links the pair if absent and returns the user's role names
	// after the change.
	AddUserRole(ctx context.Context, userID, roleID int64) ([]string, error)
	UserRoleNames(ctx context.Context, userID int64) ([]string, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool db.Conn
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, username, password_hash, email, created_at, updated_at`

// UserByID fetches a user by primary key.
func (r *Repository) UserByID(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, fmt.Sprintf("user %d", id))
}

// UserByUsername fetches a user by unique username.
func (r *Repository) UserByUsername(ctx context.Context, username string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row, fmt.Sprintf("user %q", username))
}

// CreateUser inserts a new user.
func (r *Repository) CreateUser(ctx context.Context, u NewUser) (User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, email) VALUES ($1, $2, $3) RETURNING `+userColumns,
		u.Username, u.PasswordHash, u.Email)
	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err, "users_username_key") {
			return User{}, fmt.Errorf("user %q: %w", u.Username, shared.ErrDuplicateUsername)
		}
		return User{}, shared.StoreError("users: create user", err)
	}
	return user, nil
}

// AddUserRole attaches a role to a user in one transaction.
func (r *Repository) AddUserRole(ctx context.Context, userID, roleID int64) ([]string, error) {
	var names []string
	err := db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, roleID); err != nil {
			return err
		}
		var err error
		names, err = queryRoleNames(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, shared.StoreError("users: add role", err)
	}
	return names, nil
}

// UserRoleNames returns the role names held by a user.
func (r *Repository) UserRoleNames(ctx context.Context, userID int64) ([]string, error) {
	names, err := queryRoleNames(ctx, r.pool, userID)
	if err != nil {
		return nil, shared.StoreError("users: role names", err)
	}
	return names, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryRoleNames(ctx context.Context, q querier, userID int64) ([]string, error) {
	rows, err := q.Query(ctx, `
		SELECT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY ur.created_at, r.name`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanUser(row pgx.Row, what string) (User, error) {
	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("%s: %w", what, shared.ErrNotFound)
		}
		return User{}, shared.StoreError("users: get user", err)
	}
	return user, nil
}

var _ RepositoryPort = (*Repository)(nil)
