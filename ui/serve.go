package ui

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"gostatsplot/internal"
)

// Serve runs h on addr until ctx is cancelled, then shuts down, giving
// in-flight requests up to shutdownTimeout.
func Serve(ctx context.Context, addr string, h http.Handler, shutdownTimeout time.Duration, logger *internal.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serveListener(ctx, ln, h, shutdownTimeout, logger)
}

func serveListener(ctx context.Context, ln net.Listener, h http.Handler, shutdownTimeout time.Duration, logger *internal.Logger) error {
	if logger == nil {
		logger = internal.NopLogger()
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("[Server] listening on %s", ln.Addr())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("[Server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
