package services

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/store"
)

// Kinds reported to the Recorder when a lazy-expiry delete fails.
const (
	KindSession             = "session"
	KindVerificationRequest = "verification_request"
)

// deps is what every manager shares.
type deps struct {
	store   store.Store
	logger  *slog.Logger
	metrics core.Recorder
	now     func() time.Time
}

func newDeps(s store.Store, logger *slog.Logger, metrics core.Recorder) deps {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = core.NopRecorder{}
	}
	return deps{store: s, logger: logger, metrics: metrics, now: time.Now}
}

// clock returns the current time in store precision.
func (d deps) clock() bson.DateTime {
	return store.NativeTime(d.now())
}

// expired reports whether expires lies strictly before now.
func expired(expires time.Time, now bson.DateTime) bool {
	return store.NativeTime(expires) < now
}

// purge deletes an expired document. Failures are logged and counted, never
// returned: the caller already answers not-found.
func (d deps) purge(ctx context.Context, kind string, target store.Target) {
	if _, err := d.store.Delete(ctx, target); err != nil {
		d.logger.Warn("failed to purge expired record",
			slog.String("kind", kind),
			slog.String("ref", target.String()),
			slog.Any("error", err),
		)
		d.metrics.ExpiredPurgeFailed(kind)
	}
}
