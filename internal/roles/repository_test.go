package roles

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpac/rpac/internal/platform/db"
	"github.com/rpac/rpac/internal/shared"
)

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

type stubConn struct {
	db.Conn
	rowErr   error
	beginErr error
	opts     pgx.TxOptions
}

func (c *stubConn) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{err: c.rowErr}
}

func (c *stubConn) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	c.opts = opts
	return nil, c.beginErr
}

func TestRepositoryCreateMapsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	conn := &stubConn{rowErr: &pgconn.PgError{Code: "23505", ConstraintName: "roles_name_key"}}
	repo := &Repository{pool: conn}

	_, err := repo.CreateRole(ctx, "admin", nil)
	assert.ErrorIs(t, err, shared.ErrDuplicateName)
	assert.NotErrorIs(t, err, shared.ErrStoreUnavailable)

	conn.rowErr = &pgconn.PgError{Code: "23505", ConstraintName: "some_other_key"}
	_, err = repo.CreateRole(ctx, "admin", nil)
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, shared.ErrDuplicateName)

	conn.rowErr = errors.New("connection reset")
	_, err = repo.CreateRole(ctx, "admin", nil)
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
}

func TestRepositoryLinksUnderReadCommitted(t *testing.T) {
	conn := &stubConn{beginErr: errors.New("pool closed")}
	repo := &Repository{pool: conn}

	_, err := repo.AddRolePermission(context.Background(), 1, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
	assert.Equal(t, pgx.ReadCommitted, conn.opts.IsoLevel)
}
