// Package compliance provides a fail-closed audit publisher for customer
// lifecycle events.
//
// Events are written to the audit store (the outbox when backed by
// PostgreSQL) and the caller blocks until the write succeeds. If the write
// fails an error is returned and the calling operation must fail, which
// rolls back the surrounding transaction.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"customerapi/pkg/platform/audit"
	"customerapi/pkg/requestcontext"
)

var errMissingAction = errors.New("compliance event requires Action")

// Publisher emits compliance events with fail-closed semantics.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// New creates a compliance publisher writing to store.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously writes event to the audit store. Missing timestamp,
// category, request id and client ip are filled from ctx.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := time.Now()

	if event.Action == "" {
		return errMissingAction
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncPersistFailures()
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "compliance audit failed",
				"action", event.Action,
				"subject", event.Subject,
				"request_id", event.RequestID,
				"error", err,
			)
		}
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}

	p.metrics.ObservePersistDuration(time.Since(start).Seconds())
	p.metrics.IncEventsEmitted(event.Action)
	if p.logger != nil {
		p.logger.DebugContext(ctx, "audit event recorded",
			"action", event.Action,
			"subject", event.Subject,
			"request_id", event.RequestID,
		)
	}
	return nil
}
