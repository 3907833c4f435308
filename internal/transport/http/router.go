package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"customerapi/internal/platform/metrics"
	"customerapi/internal/platform/middleware"
	id "customerapi/pkg/domain"
	"customerapi/pkg/platform/httputil"
	adminmw "customerapi/pkg/platform/middleware/admin"
	"customerapi/pkg/platform/middleware/metadata"
	"customerapi/pkg/platform/middleware/request"
	"customerapi/pkg/platform/middleware/requesttime"
	"customerapi/pkg/platform/middleware/version"
)

const readyCheckTimeout = 2 * time.Second

// RouteRegistrar is a feature handler that mounts its routes.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// AdminRouteRegistrar is a feature handler with admin-only routes.
type AdminRouteRegistrar interface {
	RegisterAdmin(r chi.Router)
}

// HealthChecker is a dependency the readiness probe pings.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) Health(ctx context.Context) error {
	return f(ctx)
}

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	// AdminToken enables the /admin routes when non-empty.
	AdminToken string
	Handlers   []RouteRegistrar
	Admin      []AdminRouteRegistrar
	// Ready maps dependency names to their readiness checks.
	Ready map[string]HealthChecker
}

// NewRouter builds the process router: global middleware, probes, metrics,
// versioned API routes and, when configured, admin routes.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.LatencyMiddleware(cfg.Metrics))

	r.Get("/health", handleHealth)
	r.Get("/ready", readyHandler(cfg.Ready, logger))
	r.Handle("/metrics", metrics.Handler())

	r.Route(id.APIVersionV1.PathPrefix(), func(r chi.Router) {
		r.Use(version.ExtractVersion(id.APIVersionV1))
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		r.Use(middleware.ContentTypeJSON)
		for _, h := range cfg.Handlers {
			h.Register(r)
		}
	})

	if cfg.AdminToken != "" && len(cfg.Admin) > 0 {
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminmw.RequireAdminToken(cfg.AdminToken, logger))
			r.Use(middleware.Timeout(cfg.RequestTimeout))
			for _, h := range cfg.Admin {
				h.RegisterAdmin(r)
			}
		})
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func readyHandler(checks map[string]HealthChecker, logger *slog.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		resp := readyResponse{Status: "ready", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for _, name := range names {
			if err := checks[name].Health(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
				resp.Checks[name] = "unavailable"
				resp.Status = "not_ready"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
