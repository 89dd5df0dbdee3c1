// Package di assembles the ledger's object graph
package di

import (
	"context"
	"fmt"

	"github.com/damon-houk/thrift-ledger/internal/application/service"
	"github.com/damon-houk/thrift-ledger/internal/config"
	"github.com/damon-houk/thrift-ledger/internal/domain/repository"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/db"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/handler"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
	"go.uber.org/dig"
)

// App holds the wired components the server needs at runtime
type App struct {
	Router       *mux.Router
	Store        repository.TransactionStore
	Transactions *service.TransactionService
	Metrics      *service.MetricsMaintainer
}

// Close releases the storage medium
func (a *App) Close() error {
	return a.Store.Close()
}

// Build wires every component for cfg. The returned App owns the store.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	c := dig.New()
	providers := []interface{}{
		func() context.Context { return ctx },
		func() *config.Config { return cfg },
		func() logger.Logger { return log },
		db.OpenStore,
		service.NewTransactionService,
		func(s *service.TransactionService) service.SnapshotSource { return s },
		func(s *service.TransactionService) service.Lister { return s },
		service.NewMetricsMaintainer,
		service.NewAnalyticsService,
		handler.NewTransactionHandler,
		handler.NewAnalyticsHandler,
		newRouter,
	}
	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return nil, fmt.Errorf("register provider: %w", err)
		}
	}

	var app *App
	err := c.Invoke(func(
		router *mux.Router,
		store repository.TransactionStore,
		txs *service.TransactionService,
		metrics *service.MetricsMaintainer,
	) {
		txs.Subscribe(metrics)
		app = &App{
			Router:       router,
			Store:        store,
			Transactions: txs,
			Metrics:      metrics,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("build application: %w", dig.RootCause(err))
	}

	return app, nil
}

func newRouter(log logger.Logger, txs *handler.TransactionHandler, analytics *handler.AnalyticsHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware(log),
		middleware.RecoverMiddleware(log),
	)

	txs.RegisterRoutes(router)
	analytics.RegisterRoutes(router)
	return router
}
