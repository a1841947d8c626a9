package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/play4stakes/play4stakes/internal/services/arena"
)

// NewServer creates and returns a configured *http.Server for the arena API.
func NewServer(port uint16, svc *arena.Service) *http.Server {
	mux := NewRouter(svc)

	addr := fmt.Sprintf(":%d", port)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
