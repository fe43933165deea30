// Package sweep removes expired sessions and verification requests in the
// background. Reads already ignore expired records, so the sweep only
// reclaims storage.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/records"
	"github.com/lborres/docauth/store"
)

// Collections swept on every pass.
var Collections = []string{records.Sessions, records.VerificationRequests}

type Job struct {
	sweeper store.Sweeper
	logger  *slog.Logger
	metrics core.Recorder
	now     func() time.Time
}

func NewJob(sweeper store.Sweeper, logger *slog.Logger, metrics core.Recorder) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = core.NopRecorder{}
	}
	return &Job{
		sweeper: sweeper,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Run deletes every swept record whose expiry lies before now. A failing
// collection does not stop the others; all failures are returned joined.
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := j.now()

	var errs []error
	for _, collection := range Collections {
		n, err := j.sweeper.DeleteExpired(ctx, collection, records.ExpiresField, cutoff)
		if n > 0 {
			j.metrics.Swept(collection, n)
		}
		if err != nil {
			j.logger.ErrorContext(ctx, "sweep failed",
				slog.String("collection", collection),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("sweep %s: %w", collection, err))
			continue
		}

		j.logger.InfoContext(ctx, "sweep completed",
			slog.String("collection", collection),
			slog.Int64("deleted_count", n),
			slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
		)
	}
	return errors.Join(errs...)
}

// Start runs the job every interval until ctx is done. A non-positive
// interval disables the sweep.
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = j.Run(ctx) // logged in Run
		}
	}
}
