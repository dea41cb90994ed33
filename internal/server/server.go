// Package server runs the HTTP and gRPC listeners for an App and shuts
// them down together.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/adegaexpress/adega/config"
	"github.com/adegaexpress/adega/internal/kernel"
	"github.com/adegaexpress/adega/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Run serves until ctx is cancelled, then drains in-flight requests.
// Event streams are ended first so Shutdown is not held open by them.
func Run(ctx context.Context, app *kernel.App, workers int) error {
	streamCtx, endStreams := context.WithCancel(context.Background())
	defer endStreams()

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return streamCtx },
	}

	if port := config.GRPCPort(); port != "" {
		if err := app.GRPC.Start(port); err != nil {
			return err
		}
		defer app.GRPC.Stop()
	}

	appCtx, stopApp := context.WithCancel(ctx)
	defer stopApp()
	app.Start(appCtx, workers)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http: listening", "addr", srv.Addr, "env", config.AppEnv())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("http: shutting down", "channels", app.Broker.Len())
	endStreams()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)

	stopApp()
	app.Scheduler.Wait()
	return err
}
