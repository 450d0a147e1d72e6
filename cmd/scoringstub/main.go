// Command scoringstub serves the reference scoring model over HTTP for local
// development.
//
// Usage:
//
//	go run ./cmd/scoringstub -addr :5000
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/training-suitability/internal/scoringstub"
)

func main() {
	if err := run(); err != nil {
		slog.Error("scoring stub failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", sharedcfg.EnvOrDefault("STUB_ADDR", ":5000"), "listen address")
	noModel := flag.Bool("no-model", false, "start without a model loaded")
	flag.Parse()

	logger := sharedobs.NewLogger(sharedcfg.EnvOrDefault("LOG_LEVEL", "info"), sharedcfg.EnvOrDefault("LOG_FORMAT", "text"))

	var model scoringstub.Model = scoringstub.TableModel{}
	if *noModel {
		model = nil
	}
	stub := scoringstub.New(model, logger)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           stub.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("scoring stub listening", "addr", *addr, "model_loaded", model != nil)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
