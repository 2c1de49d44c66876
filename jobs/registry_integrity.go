package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	jobmetrics "github.com/odyssey-erp/nft-registry/internal/jobs"
	"github.com/odyssey-erp/nft-registry/internal/registry"
	"github.com/odyssey-erp/nft-registry/internal/shared"
)

const integrityLockTTL = 10 * time.Minute

// IntegrityJob verifies the stored event stream on a schedule.
type IntegrityJob struct {
	repo    registry.RepositoryPort
	heads   registry.HeadReader
	locker  *redis.Client
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewIntegrityJob builds the job. locker may be nil to skip single-flight
// locking; heads may be nil to skip the publication check.
func NewIntegrityJob(repo registry.RepositoryPort, heads registry.HeadReader, locker *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *IntegrityJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntegrityJob{repo: repo, heads: heads, locker: locker, logger: logger, metrics: metrics}
}

// Handle processes TaskRegistryIntegrity tasks.
func (j *IntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload IntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("integrity payload: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.metrics.Track(jobRegistryIntegrity)

	if j.locker != nil {
		key := shared.JobLockKey(jobRegistryIntegrity)
		acquired, err := j.locker.SetNX(ctx, key, payload.Reason, integrityLockTTL).Result()
		if err != nil {
			return tracker.End(fmt.Errorf("integrity lock: %w", err))
		}
		if !acquired {
			j.logger.Info("integrity check already running", slog.String("reason", payload.Reason))
			return tracker.End(nil)
		}
		defer j.locker.Del(context.WithoutCancel(ctx), key)
	}

	report, err := registry.CheckStream(ctx, j.repo, j.heads)
	if err != nil {
		j.logger.Error("registry integrity check failed", slog.Any("error", err), slog.String("reason", payload.Reason))
		if errors.Is(err, registry.ErrIntegrity) {
			// A diverged stream will not heal on retry.
			return tracker.End(fmt.Errorf("%w: %w", err, asynq.SkipRetry))
		}
		return tracker.End(err)
	}
	j.metrics.AddItems(jobRegistryIntegrity, int64(report.Events))
	j.logger.Info("registry integrity verified",
		slog.Int("events", report.Events),
		slog.Uint64("version", report.Version),
		slog.Uint64("supply", report.Supply),
		slog.String("reason", payload.Reason))
	return tracker.End(nil)
}
