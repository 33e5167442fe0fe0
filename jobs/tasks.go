package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rpac/rpac/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuthEvent persists one authentication audit event.
	TaskAuthEvent = "auth:event"
	// TaskAuditPrune deletes auth events past the retention window.
	TaskAuditPrune = "audit:prune"
)

const authEventMaxRetry = 5

// NewAuthEventTask constructs an Asynq task carrying event. The event id
// doubles as the task id so a re-enqueued event is rejected as a duplicate.
func NewAuthEventTask(event audit.Event) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(authEventMaxRetry),
		asynq.Timeout(30 * time.Second),
	}
	if event.ID != "" {
		opts = append(opts, asynq.TaskID(event.ID))
	}
	return asynq.NewTask(TaskAuthEvent, data, opts...), nil
}

// NewAuditPruneTask constructs the periodic retention task.
func NewAuditPruneTask() *asynq.Task {
	return asynq.NewTask(TaskAuditPrune, nil,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
		asynq.Unique(time.Hour),
	)
}
