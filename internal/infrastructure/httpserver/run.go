// Package httpserver runs an HTTP server until its context is cancelled.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
	"golang.org/x/sync/errgroup"
)

// New returns a server with the timeouts both binaries use
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
}

// Run serves on srv.Addr until ctx is done, then shuts down gracefully within
// shutdownTimeout. It returns nil after a clean shutdown.
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log logger.Logger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}
	return Serve(ctx, srv, ln, shutdownTimeout, log)
}

// Serve is Run on an existing listener
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, log logger.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server listening", logger.Fields{"addr": ln.Addr().String()})
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server", logger.Fields{"timeout": shutdownTimeout.String()})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("Server stopped gracefully", nil)
	return nil
}
