package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	customermetrics "customerapi/internal/customer/metrics"
	"customerapi/internal/customer/models"
	"customerapi/internal/customer/store"
	id "customerapi/pkg/domain"
	dErrors "customerapi/pkg/domain-errors"
	"customerapi/pkg/platform/audit"
	"customerapi/pkg/platform/sentinel"
	"customerapi/pkg/requestcontext"
)

const tracerName = "customerapi/internal/customer/service"

// Store is the customer repository.
type Store interface {
	Save(ctx context.Context, c *models.Customer) error
	FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error)
	FindAll(ctx context.Context) ([]*models.Customer, error)
	DeleteByID(ctx context.Context, customerID id.CustomerID) error
	DeleteAll(ctx context.Context) error
}

// StoreTx provides a transactional boundary for customer mutations.
// Implementations may wrap a database transaction or, in-memory, a coarse lock.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates customer lifecycle operations.
type Service struct {
	store          Store
	tx             StoreTx
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *customermetrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *customermetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithStoreTx sets the unit-of-work runner. Defaults to an in-memory lock.
func WithStoreTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// New constructs a Service.
func New(customers Store, opts ...Option) *Service {
	s := &Service{
		store:  customers,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = store.NewInMemoryTx()
	}
	return s
}

// List returns every customer in id order.
func (s *Service) List(ctx context.Context) ([]*models.Customer, error) {
	ctx, span := s.tracer.Start(ctx, "customer.List")
	defer span.End()
	defer s.metrics.ObserveOperation("list", time.Now())

	customers, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list customers"))
	}
	span.SetAttributes(attribute.Int("customer.count", len(customers)))
	return customers, nil
}

func (s *Service) Get(ctx context.Context, customerID id.CustomerID) (*models.Customer, error) {
	ctx, span := s.tracer.Start(ctx, "customer.Get", trace.WithAttributes(idAttr(customerID)))
	defer span.End()
	defer s.metrics.ObserveOperation("get", time.Now())

	if err := requireCustomerID(customerID); err != nil {
		return nil, s.fail(span, err)
	}
	c, err := s.store.FindByID(ctx, customerID)
	if err != nil {
		return nil, s.fail(span, wrapCustomerErr(err, customerID, "failed to load customer"))
	}
	return c, nil
}

// Create validates and persists a new customer, returning it with its
// assigned id.
func (s *Service) Create(ctx context.Context, name, email string) (*models.Customer, error) {
	ctx, span := s.tracer.Start(ctx, "customer.Create")
	defer span.End()
	defer s.metrics.ObserveOperation("create", time.Now())

	var created *models.Customer
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := models.NewCustomer(name, email, requestcontext.Now(txCtx))
		if err != nil {
			return toValidation(err)
		}
		if err := s.store.Save(txCtx, c); err != nil {
			return wrapCustomerErr(err, c.ID, "failed to create customer")
		}
		if err := s.emit(txCtx, audit.EventCustomerCreated, c); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	span.SetAttributes(idAttr(created.ID))
	s.metrics.IncCreated()
	s.logger.InfoContext(ctx, "customer created",
		"customer_id", created.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return created, nil
}

// Update replaces name and email of an existing customer.
func (s *Service) Update(ctx context.Context, customerID id.CustomerID, name, email string) (*models.Customer, error) {
	ctx, span := s.tracer.Start(ctx, "customer.Update", trace.WithAttributes(idAttr(customerID)))
	defer span.End()
	defer s.metrics.ObserveOperation("update", time.Now())

	if err := requireCustomerID(customerID); err != nil {
		return nil, s.fail(span, err)
	}

	var updated *models.Customer
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.store.FindByID(txCtx, customerID)
		if err != nil {
			return wrapCustomerErr(err, customerID, "failed to load customer")
		}
		if err := c.Replace(name, email, requestcontext.Now(txCtx)); err != nil {
			return toValidation(err)
		}
		if err := s.store.Save(txCtx, c); err != nil {
			return wrapCustomerErr(err, customerID, "failed to update customer")
		}
		if err := s.emit(txCtx, audit.EventCustomerUpdated, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.metrics.IncUpdated()
	s.logger.InfoContext(ctx, "customer updated",
		"customer_id", customerID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, customerID id.CustomerID) error {
	ctx, span := s.tracer.Start(ctx, "customer.Delete", trace.WithAttributes(idAttr(customerID)))
	defer span.End()
	defer s.metrics.ObserveOperation("delete", time.Now())

	if err := requireCustomerID(customerID); err != nil {
		return s.fail(span, err)
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.store.FindByID(txCtx, customerID)
		if err != nil {
			return wrapCustomerErr(err, customerID, "failed to load customer")
		}
		if err := s.store.DeleteByID(txCtx, customerID); err != nil {
			return wrapCustomerErr(err, customerID, "failed to delete customer")
		}
		return s.emit(txCtx, audit.EventCustomerDeleted, c)
	})
	if err != nil {
		return s.fail(span, err)
	}

	s.metrics.AddDeleted(1)
	s.logger.InfoContext(ctx, "customer deleted",
		"customer_id", customerID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Clear removes every customer.
func (s *Service) Clear(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "customer.Clear")
	defer span.End()
	defer s.metrics.ObserveOperation("clear", time.Now())

	var removed int
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.store.FindAll(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list customers")
		}
		if err := s.store.DeleteAll(txCtx); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear customers")
		}
		removed = len(existing)
		return s.emit(txCtx, audit.EventCustomersCleared, nil)
	})
	if err != nil {
		return s.fail(span, err)
	}

	span.SetAttributes(attribute.Int("customer.removed", removed))
	s.metrics.AddDeleted(removed)
	s.logger.InfoContext(ctx, "customers cleared",
		"removed", removed,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, c *models.Customer) error {
	if s.auditPublisher == nil {
		return nil
	}
	e := audit.Event{Action: event.String()}
	if c != nil {
		e.Subject = c.ID.String()
		e.Email = c.Email
	}
	if err := s.auditPublisher.Emit(ctx, e); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	return err
}

func requireCustomerID(customerID id.CustomerID) error {
	if !customerID.Assignable() {
		return dErrors.New(dErrors.CodeNotFound, NotFoundMessage(customerID))
	}
	return nil
}

// NotFoundMessage is the client-facing text for a missing customer.
func NotFoundMessage(customerID id.CustomerID) string {
	return "Customer Not Found: id " + customerID.String()
}

func wrapCustomerErr(err error, customerID id.CustomerID, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, NotFoundMessage(customerID))
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "email is already used by another customer")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

func toValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	return err
}

func idAttr(customerID id.CustomerID) attribute.KeyValue {
	return attribute.Int64("customer.id", int64(customerID))
}
