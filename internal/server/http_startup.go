package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// Start listens on the configured address until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%s", s.Host, s.Port))
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	s.displayServerInfo(os.Stdout)
	return s.Serve(ctx, listener)
}

// Serve runs the API server and the fixture watcher until ctx is done or one of them fails
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := s.setupHTTPServer()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.Logger.Info("Starting HTTP server",
			"address", listener.Addr().String(),
			"backend", s.Backend.Name())
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	if watcher := s.fixtureWatcher(); watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.Logger.Info("Starting graceful shutdown")
		return s.performGracefulShutdown(httpServer)
	})

	return g.Wait()
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// fixtureWatcher returns nil unless fixtures come from a watched directory
func (s *Server) fixtureWatcher() *FixtureWatcher {
	if s.Fixtures == nil || !s.AppConfig.Server.Fixtures.Watch {
		return nil
	}
	files := s.Fixtures.Files()
	if len(files) == 0 {
		return nil
	}
	return NewFixtureWatcher(files, 0, s.reloadFixtures, s.Logger)
}

func (s *Server) reloadFixtures() {
	err := s.Fixtures.Reload()
	s.Observability.RecordFixtureReload(context.Background(), err == nil)
	if err != nil {
		s.Logger.LogError(err, "Fixture reload failed, keeping previous fixtures")
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	timeout := s.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.cleanupRateLimiter()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
