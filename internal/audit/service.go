package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rpac/rpac/internal/shared"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Store is the persistence contract for auth events.
type Store interface {
	Insert(ctx context.Context, e Event) error
	Recent(ctx context.Context, f Filters) ([]Event, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Filters narrows an event listing.
type Filters struct {
	Username string
	Kind     Kind
	Page     int
	PageSize int
}

// Service coordinates recording and listing auth events.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates an audit service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Save persists an event delivered by the queue.
func (s *Service) Save(ctx context.Context, e Event) error {
	if strings.TrimSpace(e.ID) == "" || e.Kind == "" {
		return fmt.Errorf("audit: incomplete event: %w", shared.ErrValidation)
	}
	e.Username = clip(e.Username, maxUsername)
	e.Source = Source{
		RemoteAddr: clip(e.Source.RemoteAddr, maxRemoteAddr),
		UserAgent:  clip(e.Source.UserAgent, maxUserAgent),
		RequestID:  clip(e.Source.RequestID, maxRequestID),
	}
	return s.store.Insert(ctx, e)
}

// Recent lists events with sane paging defaults.
func (s *Service) Recent(ctx context.Context, f Filters) ([]Event, error) {
	switch f.Kind {
	case "", KindRegistered, KindLoginSucceeded, KindLoginFailed:
	default:
		return nil, fmt.Errorf("audit: unknown kind %q: %w", f.Kind, shared.ErrValidation)
	}
	page := shared.NewPagination(f.Page, f.PageSize, defaultPageSize, maxPageSize)
	f.Page, f.PageSize = page.Page, page.PerPage
	f.Username = shared.NormalizeName(f.Username)
	events, err := s.store.Recent(ctx, f)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []Event{}
	}
	return events, nil
}

// Prune deletes events older than retention and reports how many were removed.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("audit: retention must be positive: %w", shared.ErrValidation)
	}
	return s.store.DeleteBefore(ctx, s.now().Add(-retention))
}
