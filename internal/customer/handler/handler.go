package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"customerapi/internal/customer/models"
	id "customerapi/pkg/domain"
	dErrors "customerapi/pkg/domain-errors"
	"customerapi/pkg/platform/httputil"
	"customerapi/pkg/requestcontext"
)

// Service defines the customer operations the handler needs.
type Service interface {
	List(ctx context.Context) ([]*models.Customer, error)
	Get(ctx context.Context, customerID id.CustomerID) (*models.Customer, error)
	Create(ctx context.Context, name, email string) (*models.Customer, error)
	Update(ctx context.Context, customerID id.CustomerID, name, email string) (*models.Customer, error)
	Delete(ctx context.Context, customerID id.CustomerID) error
	Clear(ctx context.Context) error
}

// Handler handles customer endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a customer Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Register registers the public customer routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// RegisterAdmin registers bulk routes. Callers must guard r with admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Delete("/customers", h.HandleClear)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	customers, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list customers",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCustomerResponses(customers))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	customerID, ok := h.parseID(w, r, requestID)
	if !ok {
		return
	}
	c, err := h.service.Get(ctx, customerID)
	if err != nil {
		h.logServiceError(ctx, "failed to get customer", requestID, customerID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCustomerResponse(c))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CustomerRequest](ctx, w, r, h.logger, requestID)
	if !ok {
		return
	}
	c, err := h.service.Create(ctx, req.NameValue(), req.EmailValue())
	if err != nil {
		h.logServiceError(ctx, "failed to create customer", requestID, 0, err)
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Location", customerLocation(ctx, c.ID))
	httputil.WriteJSON(w, http.StatusCreated, toCustomerResponse(c))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	customerID, ok := h.parseID(w, r, requestID)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CustomerRequest](ctx, w, r, h.logger, requestID)
	if !ok {
		return
	}
	c, err := h.service.Update(ctx, customerID, req.NameValue(), req.EmailValue())
	if err != nil {
		h.logServiceError(ctx, "failed to update customer", requestID, customerID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCustomerResponse(c))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	customerID, ok := h.parseID(w, r, requestID)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, customerID); err != nil {
		h.logServiceError(ctx, "failed to delete customer", requestID, customerID, err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if err := h.service.Clear(ctx); err != nil {
		h.logger.ErrorContext(ctx, "failed to clear customers",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "customers cleared by admin",
		"request_id", requestID,
		"client_ip", requestcontext.ClientIP(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}

// customerLocation is relative to the API version the request was routed
// through, or to the customer routes themselves when there is none.
func customerLocation(ctx context.Context, customerID id.CustomerID) string {
	path := "/customers/" + customerID.String()
	if v := requestcontext.APIVersion(ctx); !v.IsNil() {
		return v.PathPrefix() + path
	}
	return path
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request, requestID string) (id.CustomerID, bool) {
	customerID, err := id.ParseCustomerID(chi.URLParam(r, "id"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid customer id",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return 0, false
	}
	return customerID, true
}

// logServiceError logs client errors at warn and everything else at error.
func (h *Handler) logServiceError(ctx context.Context, msg, requestID string, customerID id.CustomerID, err error) {
	status := httputil.StatusFor(dErrors.CodeOf(err))
	attrs := []any{"request_id", requestID, "error", err}
	if !customerID.IsNil() {
		attrs = append(attrs, "customer_id", customerID.String())
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.WarnContext(ctx, msg, attrs...)
}
