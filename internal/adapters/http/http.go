package http

import (
	"net/http"
	"time"
)

// NewServer leaves WriteTimeout above the metadata lookup timeout so an
// ISBN import can finish before the connection is cut.
func NewServer(handler http.Handler, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
