// Package httpserver constructs the portal's http.Server with shared
// timeout defaults.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for addr. ReadHeaderTimeout bounds slow-header
// clients; the write timeout stays generous because certificate PDF
// downloads can run long on poor connections.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
