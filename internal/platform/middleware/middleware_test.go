package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customerapi/internal/platform/metrics"
	"customerapi/pkg/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/"))

	testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
	assert.NotContains(t, rr.Body.String(), "boom")
}

func TestTimeout(t *testing.T) {
	t.Run("writes 503 when the handler overruns silently", func(t *testing.T) {
		h := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))

		rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/"))

		testutil.AssertStatusAndError(t, rr, http.StatusServiceUnavailable, "service_unavailable")
	})

	t.Run("leaves fast responses alone", func(t *testing.T) {
		h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/"))

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("non-positive duration adds no deadline", func(t *testing.T) {
		h := Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := r.Context().Deadline()
			assert.False(t, ok)
			w.WriteHeader(http.StatusOK)
		}))

		rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/"))

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestContentTypeJSON(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := ContentTypeJSON(ok)

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{"json body", http.MethodPost, `{}`, "application/json", http.StatusOK},
		{"json with charset", http.MethodPut, `{}`, "application/json; charset=utf-8", http.StatusOK},
		{"media type is case-insensitive", http.MethodPost, `{}`, "Application/JSON", http.StatusOK},
		{"surrounding whitespace", http.MethodPut, `{}`, " application/json ; charset=UTF-8", http.StatusOK},
		{"malformed content type", http.MethodPost, `{}`, "application/", http.StatusUnsupportedMediaType},
		{"form body", http.MethodPost, "a=b", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"no content type", http.MethodPost, `{}`, "", http.StatusOK},
		{"get is never checked", http.MethodGet, "", "text/plain", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rr := testutil.DoRequest(h, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestLatencyMiddleware(t *testing.T) {
	m := &metrics.Metrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "test_request_duration_seconds",
		}, []string{"route", "method", "status"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_in_flight"}),
	}

	r := chi.NewRouter()
	r.Use(LatencyMiddleware(m))
	r.Get("/customers/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/customers/1"))
	testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/customers/2"))

	// both requests share one series because the label is the route pattern
	require.Equal(t, 1, promtest.CollectAndCount(m.RequestDuration))
	assert.Equal(t, 0.0, promtest.ToFloat64(m.InFlight))

	_, err := m.RequestDuration.GetMetricWithLabelValues("/customers/{id}", http.MethodGet, "404")
	require.NoError(t, err)
	assert.Equal(t, 1, promtest.CollectAndCount(m.RequestDuration))
}

func TestLatencyMiddlewareWithoutMetrics(t *testing.T) {
	h := LatencyMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/"))

	assert.Equal(t, http.StatusOK, rr.Code)
}
