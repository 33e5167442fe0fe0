package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rpac/rpac/internal/audit"
	jobmetrics "github.com/rpac/rpac/internal/jobs"
	"github.com/rpac/rpac/internal/shared"
)

// EventSaver persists auth events.
type EventSaver interface {
	Save(ctx context.Context, e audit.Event) error
}

// AuditJob writes queued auth events to the audit store.
type AuditJob struct {
	Saver   EventSaver
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAuditJob wires dependencies for the audit handler.
func NewAuditJob(saver EventSaver, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditJob {
	return &AuditJob{Saver: saver, Logger: logger, Metrics: metrics}
}

// Handle processes TaskAuthEvent tasks. Malformed payloads are not retried.
func (j *AuditJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Saver == nil {
		return errors.New("audit event: handler not configured")
	}
	var event audit.Event
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return fmt.Errorf("decode auth event: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskAuthEvent)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if err := j.Saver.Save(ctx, event); err != nil {
		if errors.Is(err, shared.ErrValidation) {
			j.logger().Warn("drop invalid auth event", slog.String("event_id", event.ID), slog.Any("error", err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		j.logger().Error("save auth event", slog.String("event_id", event.ID), slog.Any("error", err))
		return err
	}
	j.logger().Debug("auth event saved", slog.String("event_id", event.ID), slog.String("kind", string(event.Kind)))
	return nil
}

func (j *AuditJob) logger() *slog.Logger {
	return loggerOrDefault(j.Logger)
}

// EventPruner removes auth events older than a retention window.
type EventPruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// PruneJob enforces audit retention.
type PruneJob struct {
	Pruner    EventPruner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewPruneJob wires dependencies for the retention handler.
func NewPruneJob(pruner EventPruner, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *PruneJob {
	return &PruneJob{Pruner: pruner, Retention: retention, Logger: logger, Metrics: metrics}
}

// Handle processes TaskAuditPrune tasks.
func (j *PruneJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Pruner == nil {
		return errors.New("audit prune: handler not configured")
	}
	tracker := j.Metrics.Track(TaskAuditPrune)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	removed, err := j.Pruner.Prune(ctx, j.Retention)
	if err != nil {
		if errors.Is(err, shared.ErrValidation) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		loggerOrDefault(j.Logger).Error("prune auth events", slog.Any("error", err))
		return err
	}
	loggerOrDefault(j.Logger).Info("auth events pruned",
		slog.Int64("removed", removed),
		slog.Duration("retention", j.Retention),
	)
	return nil
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
