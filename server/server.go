package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tailored-agentic-units/ark/store"
)

const shutdownTimeout = 5 * time.Second

// Server runs a DocumentService on a TCP listener.
type Server struct {
	cfg        Config
	svc        *Service
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener
}

// New creates a Server for svc. A nil logger uses slog.Default.
func New(cfg Config, svc *Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, svc: svc, logger: logger}
}

// Addr returns the bound address once Start has returned.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr
	}
	return s.listener.Addr().String()
}

// Start binds the listener and serves in the background until ctx is
// cancelled, then shuts down gracefully. Returns an error if the address
// cannot be bound. The returned channel yields the serve result once
// in-flight requests have finished and the last accepted save is on disk.
//
// Request contexts do not inherit ctx's cancellation, so a Put or Patch that
// is already waiting on its write still reports the real outcome during
// shutdown.
func (s *Server) Start(ctx context.Context) (<-chan error, error) {
	path, handler := NewHandler(s.svc)
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind to %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	served := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		served <- err
	}()

	done := make(chan error, 1)
	go func() {
		var err error
		stopped := false
		select {
		case err = <-served:
			stopped = true
		case <-ctx.Done():
		}
		done <- errors.Join(err, s.shutdown(served, stopped))
	}()

	s.logger.Info("document service listening", "addr", ln.Addr().String(), "service", ServiceName)
	return done, nil
}

// shutdown drains active requests, then waits for the last accepted save.
// A save that failed was already reported to its caller and is only logged.
func (s *Server) shutdown(served <-chan error, stopped bool) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown error", "error", err)
	}

	var err error
	if !stopped {
		err = <-served
	}

	if ferr := s.svc.Flush(shutdownCtx); ferr != nil {
		if !errors.Is(ferr, store.ErrWriteFailed) {
			return errors.Join(err, fmt.Errorf("failed to flush document: %w", ferr))
		}
		s.logger.Warn("last save failed before shutdown", "error", ferr)
	}
	return err
}
