package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/rpac/rpac/internal/shared"
	"github.com/rpac/rpac/internal/users"
)

const (
	subjectKeyPrefix       = "rpac:subject:"
	DefaultSubjectCacheTTL = 5 * time.Minute
)

// SubjectLookup fetches users by id.
type SubjectLookup interface {
	UserByID(ctx context.Context, id int64) (users.User, error)
}

// SubjectChecker confirms token subjects still exist. Positive answers are
// cached in Redis; a nil client disables caching.
type SubjectChecker struct {
	store  SubjectLookup
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewSubjectChecker constructs a SubjectChecker.
func NewSubjectChecker(store SubjectLookup, client *redis.Client, ttl time.Duration, logger *slog.Logger) *SubjectChecker {
	if ttl <= 0 {
		ttl = DefaultSubjectCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SubjectChecker{store: store, client: client, ttl: ttl, logger: logger}
}

// Active reports whether userID still resolves to a stored user.
func (c *SubjectChecker) Active(ctx context.Context, userID int64) (bool, error) {
	key := subjectKeyPrefix + strconv.FormatInt(userID, 10)
	if c.client != nil {
		err := c.client.Get(ctx, key).Err()
		switch {
		case err == nil:
			return true, nil
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("subject cache read failed", slog.String("key", key), slog.Any("error", err))
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		_, err := c.store.UserByID(ctx, userID)
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if c.client != nil {
			if err := c.client.Set(ctx, key, "1", c.ttl).Err(); err != nil {
				c.logger.Warn("subject cache write failed", slog.String("key", key), slog.Any("error", err))
			}
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}
