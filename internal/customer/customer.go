package customer

import (
	"log/slog"

	"customerapi/internal/customer/handler"
	"customerapi/internal/customer/service"
)

// Service exposes customer orchestration.
type Service = service.Service

// Handler wires HTTP endpoints to the customer service.
type Handler = handler.Handler

// NewService constructs the customer service over store.
func NewService(store service.Store, opts ...service.Option) *Service {
	return service.New(store, opts...)
}

// NewHandler constructs the HTTP handler for customer routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
