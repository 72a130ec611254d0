// package server serves the overlay's status and manual controls over HTTP
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytxq/internal/overlay"
)

const shutdownTimeout = 5 * time.Second

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows which patterns it serves.
//
// Patterns use [http.ServeMux] syntax and may carry a method ("GET /status").
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers handlers behind a shared middleware stack.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// Overlay is the part of [overlay.Controller] the server exposes.
type Overlay interface {
	Status() overlay.Status
	Resume() error
}

// Server is the localhost status server for a running overlay.
type Server struct {
	http   *http.Server
	logger *log.Logger
}

// New builds a server for ov listening on addr.
func New(addr string, ov Overlay, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.With("component", "server")

	router := NewBasicRouter()
	router.Use(Recover(logger), RequestLogger(logger))
	router.Handler(NewStatusHandler(ov))
	router.Handler(NewResumeHandler(ov, logger))

	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run listens until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errs := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("status server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("error shutting down status server", "error", err)
		return err
	}
	return nil
}
