// Package httpserver builds the net/http server for the customer API.
package httpserver

import (
	"net/http"
	"time"

	"customerapi/internal/platform/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
	// writeSlack lets a handler that hit REQUEST_TIMEOUT still write its 503.
	writeSlack = 5 * time.Second
)

// New returns a server listening on cfg.Addr(). Read and write deadlines are
// derived from cfg.RequestTimeout.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + writeSlack,
		IdleTimeout:       idleTimeout,
	}
}
