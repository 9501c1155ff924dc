// Package health exposes the minimal liveness endpoint used by uptime
// probes: GET / answers 200 "alive" while the process is running.
package health

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const readHeaderTimeout = 5 * time.Second

// Server is the liveness HTTP server.
type Server struct {
	server *http.Server
}

// NewServer creates a liveness server bound to the given address
// (e.g. ":8080").
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", handleLiveness)

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Start blocks serving requests until Stop is called. A server closed via
// Stop returns nil.
func (s *Server) Start() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
