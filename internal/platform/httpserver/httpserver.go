package httpserver

import (
	"net/http"
	"time"
)

// New builds the POS HTTP server. Read and write timeouts are generous
// because report uploads and downloads move multi-megabyte gzip bodies over
// restaurant Wi-Fi; the header timeout stays tight to shed idle dials.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}
