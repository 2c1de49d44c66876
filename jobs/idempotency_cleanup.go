package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/nft-registry/internal/jobs"
)

// Purger deletes idempotency keys older than a retention window.
type Purger interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CleanupJob purges expired idempotency keys.
type CleanupJob struct {
	purger  Purger
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewCleanupJob builds the job.
func NewCleanupJob(purger Purger, logger *slog.Logger, metrics *jobmetrics.Metrics) *CleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupJob{purger: purger, logger: logger, metrics: metrics}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *CleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload CleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.RetentionHours <= 0 {
		return fmt.Errorf("cleanup payload invalid: %w", asynq.SkipRetry)
	}
	tracker := j.metrics.Track(jobIdempotencyCleanup)
	purged, err := j.purger.Cleanup(ctx, time.Duration(payload.RetentionHours)*time.Hour)
	if err != nil {
		return tracker.End(fmt.Errorf("purge idempotency keys: %w", err))
	}
	j.metrics.AddItems(jobIdempotencyCleanup, purged)
	j.logger.Info("idempotency keys purged", slog.Int64("purged", purged), slog.Int("retention_hours", payload.RetentionHours))
	return tracker.End(nil)
}
