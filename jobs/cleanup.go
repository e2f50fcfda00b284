package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/sistem-pejabat/pejabat/internal/jobs"
)

// DefaultIdempotencyRetention is how long processed request keys are kept.
const DefaultIdempotencyRetention = 7 * 24 * time.Hour

// LinkPurger removes share links that stopped working before a cutoff.
type LinkPurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// KeyCleaner removes idempotency keys older than a retention window.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// PurgeJob handles TaskShareLinkPurge.
type PurgeJob struct {
	Links     LinkPurger
	Keys      KeyCleaner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewPurgeJob initialises the purge handler. keys may be nil.
func NewPurgeJob(links LinkPurger, keys KeyCleaner, logger *slog.Logger, metrics *jobmetrics.Metrics) *PurgeJob {
	return &PurgeJob{
		Links:     links,
		Keys:      keys,
		Retention: DefaultIdempotencyRetention,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle purges expired links, then stale idempotency keys.
func (j *PurgeJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Links == nil {
		return errors.New("sharelink purge: handler not configured")
	}
	tracker := j.Metrics.Track(TaskShareLinkPurge)

	links, err := j.Links.PurgeExpired(ctx, j.clock())
	if err != nil {
		j.logger().Error("purge share links", slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.AddPurged("share_link", links)

	var keys int64
	if j.Keys != nil {
		keys, err = j.Keys.Cleanup(ctx, j.Retention)
		if err != nil {
			j.logger().Error("purge idempotency keys", slog.Any("error", err))
			return tracker.End(err)
		}
		j.Metrics.AddPurged("idempotency_key", keys)
	}

	j.logger().Info("purge complete", slog.Int64("share_links", links), slog.Int64("idempotency_keys", keys))
	return tracker.End(nil)
}

func (j *PurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
