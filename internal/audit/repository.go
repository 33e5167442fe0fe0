package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpac/rpac/internal/platform/db"
	"github.com/rpac/rpac/internal/shared"
)

// Repository persists auth events in PostgreSQL.
type Repository struct {
	pool db.Conn
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores an event. Replaying the same event id is a no-op so queue
// retries stay idempotent.
func (r *Repository) Insert(ctx context.Context, e Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO auth_events (id, kind, username, user_id, remote_addr, user_agent, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, string(e.Kind), e.Username, e.UserID, e.Source.RemoteAddr, e.Source.UserAgent, e.Source.RequestID, e.OccurredAt)
	if err != nil {
		if db.IsDataException(err) {
			return fmt.Errorf("audit: insert event %s: %v: %w", e.ID, err, shared.ErrValidation)
		}
		return shared.StoreError("audit: insert event", err)
	}
	return nil
}

// Recent lists events newest first.
func (r *Repository) Recent(ctx context.Context, f Filters) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, kind, username, user_id, COALESCE(remote_addr, ''), COALESCE(user_agent, ''), COALESCE(request_id, ''), occurred_at
		FROM auth_events
		WHERE ($1 = '' OR username = $1) AND ($2 = '' OR kind = $2)
		ORDER BY occurred_at DESC
		LIMIT $3 OFFSET $4`,
		f.Username, string(f.Kind), f.PageSize, shared.NewPagination(f.Page, f.PageSize, defaultPageSize, maxPageSize).Offset())
	if err != nil {
		return nil, shared.StoreError("audit: recent events", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
		var e Event
		var kind string
		err := row.Scan(&e.ID, &kind, &e.Username, &e.UserID, &e.Source.RemoteAddr, &e.Source.UserAgent, &e.Source.RequestID, &e.OccurredAt)
		e.Kind = Kind(kind)
		return e, err
	})
	if err != nil {
		return nil, shared.StoreError("audit: recent events", err)
	}
	return events, nil
}

// DeleteBefore removes events that occurred before cutoff.
func (r *Repository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auth_events WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, shared.StoreError("audit: prune events", err)
	}
	return tag.RowsAffected(), nil
}

var _ Store = (*Repository)(nil)
