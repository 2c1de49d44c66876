package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRegistryIntegrity replays the stored stream and checks it against
	// the published head.
	TaskRegistryIntegrity = "registry:integrity"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "registry:idempotency_cleanup"

	jobRegistryIntegrity  = "registry_integrity"
	jobIdempotencyCleanup = "idempotency_cleanup"
)

// IntegrityPayload describes why a check was requested.
type IntegrityPayload struct {
	Reason string `json:"reason"`
}

// CleanupPayload sets the idempotency key retention.
type CleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewIntegrityTask constructs an integrity check task.
func NewIntegrityTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(IntegrityPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRegistryIntegrity, data), nil
}

// NewCleanupTask constructs an idempotency cleanup task.
func NewCleanupTask(retention time.Duration) (*asynq.Task, error) {
	hours := int(retention / time.Hour)
	if hours <= 0 {
		hours = 1
	}
	data, err := json.Marshal(CleanupPayload{RetentionHours: hours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
