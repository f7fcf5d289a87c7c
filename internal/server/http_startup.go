package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownHook runs after the HTTP server stops accepting requests
type ShutdownHook func(ctx context.Context) error

// Start serves until SIGINT/SIGTERM or ctx is cancelled, then shuts down
// gracefully. hooks run in order once the listener is closed.
func (s *Server) Start(ctx context.Context, hooks ...ShutdownHook) error {
	httpServer := s.setupHTTPServer()
	s.displayServerInfo()
	return s.startWithGracefulShutdown(ctx, httpServer, hooks)
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server, hooks []ShutdownHook) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())
	case <-ctx.Done():
		s.Logger.Info("Context cancelled, starting graceful shutdown")
	}
	return s.performGracefulShutdown(server, hooks)
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server, hooks []ShutdownHook) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// websocket connections are hijacked and not closed by server.Shutdown
	if s.Hub != nil {
		s.Hub.Close()
	}
	s.cleanupRateLimiter()

	s.Logger.Info("Shutting down HTTP server...")
	var shutdownErr error
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		shutdownErr = server.Close()
	}

	for _, hook := range hooks {
		if err := hook(shutdownCtx); err != nil {
			s.Logger.LogError(err, "Shutdown hook failed")
		}
	}

	if err := s.Observability.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}

	s.Logger.Info("Server shutdown completed")
	return shutdownErr
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
