// Package worker relays audit outbox entries to a sink in the background.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"customerapi/pkg/platform/audit"

	"github.com/google/uuid"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Source is an outbox the relay drains.
type Source interface {
	FetchUnpublished(ctx context.Context, limit int) ([]audit.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Sink receives relayed entries. Publish must be all-or-nothing for the batch
// or entries may be delivered twice.
type Sink interface {
	Publish(ctx context.Context, entries []audit.OutboxEntry) error
}

// Worker polls the outbox and forwards unpublished entries to the sink.
// Delivery is at-least-once.
type Worker struct {
	source    Source
	sink      Sink
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func NewWorker(source Source, sink Sink, opts ...Option) *Worker {
	w := &Worker{
		source:    source,
		sink:      sink,
		logger:    slog.Default(),
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run relays until ctx is cancelled, then makes one last pass with a short
// deadline so entries written during shutdown are not left behind.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if _, err := w.RelayOnce(drainCtx); err != nil {
				w.logger.WarnContext(drainCtx, "final outbox relay failed", "error", err)
			}
			return ctx.Err()
		case <-ticker.C:
			for {
				n, err := w.RelayOnce(ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						w.logger.WarnContext(ctx, "outbox relay failed", "error", err)
					}
					break
				}
				if n < w.batchSize {
					break
				}
			}
		}
	}
}

// RelayOnce forwards a single batch and returns how many entries were sent.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	entries, err := w.source.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := w.sink.Publish(ctx, entries); err != nil {
		return 0, err
	}
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := w.source.MarkPublished(ctx, ids); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// LogSink writes entries to a structured logger. Used when no broker is
// configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, entries []audit.OutboxEntry) error {
	for _, e := range entries {
		s.logger.InfoContext(ctx, "audit event",
			"event_id", e.ID.String(),
			"event_type", e.EventType,
			"aggregate_id", e.AggregateID,
			"payload", string(e.Payload),
		)
	}
	return nil
}
