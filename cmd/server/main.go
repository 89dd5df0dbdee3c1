package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/damon-houk/thrift-ledger/internal/config"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/di"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		logger.Error("Server stopped with error", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logger.NewJSONLogger(os.Stdout, level)
	logger.SetDefaultLogger(log)

	log.Info("Starting thrift ledger", map[string]interface{}{
		"port":       cfg.Port,
		"collection": cfg.Collection,
		"log_level":  level,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := di.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("Error closing transaction store", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// A failed first read leaves the summary at zero until the next mutation
	_ = app.Metrics.Refresh(ctx)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server listening", map[string]interface{}{
			"addr": server.Addr,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server", map[string]interface{}{
			"timeout": cfg.ShutdownTimeout.String(),
		})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
