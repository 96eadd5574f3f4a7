package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"schoolhub/internal/platform/metrics"
)

// Store persists entries. Append-only; nothing in this service mutates or
// deletes an entry once written.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
}

// Stream optionally mirrors entries to an external sink (Kafka). Mirror
// failure is handled exactly like store failure: warned and suppressed.
type Stream interface {
	Publish(ctx context.Context, entry Entry) error
}

// Recorder writes the trail. Record never returns an error: availability of
// the primary action outranks durability of its audit trail, so faults are
// logged at warning level and swallowed. The write stays on the request's
// execution path, no detached goroutine, so callers can guarantee they invoke
// Record only after their data fetch succeeded.
type Recorder struct {
	store   Store
	stream  Stream
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(r *Recorder)

func WithStream(stream Stream) Option {
	return func(r *Recorder) { r.stream = stream }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

func NewRecorder(store Store, logger *slog.Logger, opts ...Option) *Recorder {
	r := &Recorder{store: store, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record persists one entry, best effort.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.WarnContext(ctx, "audit write failed",
			"action", entry.Action,
			"user_id", entry.UserID,
			"error", err.Error(),
		)
		if r.metrics != nil {
			r.metrics.AuditFailuresTotal.Inc()
		}
		return
	}
	if r.metrics != nil {
		r.metrics.AuditWritesTotal.Inc()
	}

	if r.stream != nil {
		if err := r.stream.Publish(ctx, entry); err != nil {
			r.logger.WarnContext(ctx, "audit stream publish failed",
				"action", entry.Action,
				"error", err.Error(),
			)
		}
	}
}

// List returns the most recent entries for the review endpoint.
func (r *Recorder) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return r.store.List(ctx, limit)
}
