// Package httpserver builds the process's HTTP server with timeouts suited
// to this workload.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for the given handler. ReadTimeout is generous
// because intake uploads waiver PDFs in the request body; header reading
// stays tight to shed slowloris-style clients.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
