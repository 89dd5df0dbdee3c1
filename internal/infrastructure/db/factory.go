package db

import (
	"context"
	"fmt"

	"github.com/damon-houk/thrift-ledger/internal/config"
	"github.com/damon-houk/thrift-ledger/internal/domain/repository"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
)

// OpenStore opens the storage medium selected by cfg. The caller owns the
// returned store and must Close it.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.TransactionStore, error) {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	backend, err := cfg.Backend()
	if err != nil {
		return nil, err
	}

	log.Info("Opening transaction store", map[string]interface{}{
		"backend":    backend,
		"collection": cfg.Collection,
	})

	var store repository.TransactionStore
	switch backend {
	case config.LocalBackend:
		store, err = openBadger(cfg, log)
	case config.MongoBackend:
		store, err = openMongo(ctx, cfg, log)
	case config.PostgresBackend:
		store, err = openPostgres(ctx, cfg, log)
	default:
		err = fmt.Errorf("unsupported backend: %s", backend)
	}
	if err != nil {
		return nil, err
	}

	return store, nil
}

func openBadger(cfg *config.Config, log logger.Logger) (repository.TransactionStore, error) {
	s, err := OpenBadgerTransactionStore(BadgerConfig{
		Dir:        cfg.DataDir,
		Collection: cfg.Collection,
	}, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openMongo(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.TransactionStore, error) {
	s, err := OpenMongoTransactionStore(ctx, MongoConfig{
		URI:        cfg.DatabaseURL,
		Database:   cfg.MongoDatabase,
		Collection: cfg.Collection,
	}, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.TransactionStore, error) {
	s, err := OpenPostgresTransactionStore(ctx, PostgresConfig{
		URL:        cfg.DatabaseURL,
		Collection: cfg.Collection,
	}, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}
