package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
	"github.com/dgraph-io/badger/v3"
)

// BadgerConfig configures the local key-value store
type BadgerConfig struct {
	Dir        string
	InMemory   bool
	Collection string
}

// BadgerTransactionStore keeps the whole ledger as one JSON array under a
// single key. Every mutation rewrites the array inside one Badger transaction.
type BadgerTransactionStore struct {
	db     *badger.DB
	key    []byte
	logger logger.Logger
}

// OpenBadgerTransactionStore opens (or creates) the Badger database described by cfg
func OpenBadgerTransactionStore(cfg BadgerConfig, log logger.Logger) (*BadgerTransactionStore, error) {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if cfg.Collection == "" {
		return nil, errors.New("badger store: collection name is required")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithLogger(nil)

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	log.Info("Badger store opened", map[string]interface{}{
		"dir":        cfg.Dir,
		"in_memory":  cfg.InMemory,
		"collection": cfg.Collection,
	})

	return NewBadgerTransactionStore(bdb, cfg.Collection, log), nil
}

// NewBadgerTransactionStore wraps an already opened Badger database.
// The store takes ownership of db and closes it on Close.
func NewBadgerTransactionStore(db *badger.DB, collection string, log logger.Logger) *BadgerTransactionStore {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &BadgerTransactionStore{
		db:     db,
		key:    []byte("ledger:" + collection),
		logger: log.WithField("store", "badger"),
	}
}

// List returns the stored collection, newest first
func (s *BadgerTransactionStore) List(ctx context.Context) ([]entity.Transaction, error) {
	var txs []entity.Transaction

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		txs, err = s.read(txn)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return txs, nil
}

// Insert prepends tx to the collection
func (s *BadgerTransactionStore) Insert(ctx context.Context, tx entity.Transaction) error {
	_, err := s.mutate(func(txs []entity.Transaction) ([]entity.Transaction, bool, error) {
		if indexOf(txs, tx.ID) >= 0 {
			return nil, false, fmt.Errorf("duplicate transaction id: %s", tx.ID)
		}
		return append([]entity.Transaction{tx}, txs...), true, nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	s.logger.Debug("Transaction inserted", map[string]interface{}{"id": tx.ID})
	return nil
}

// Update merges the patch into the transaction with the given id
func (s *BadgerTransactionStore) Update(ctx context.Context, id string, patch entity.TransactionPatch) (bool, error) {
	found, err := s.mutate(func(txs []entity.Transaction) ([]entity.Transaction, bool, error) {
		i := indexOf(txs, id)
		if i < 0 {
			return txs, false, nil
		}
		txs[i].Apply(patch)
		return txs, true, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to update transaction: %w", err)
	}

	return found, nil
}

// Delete removes the transaction with the given id
func (s *BadgerTransactionStore) Delete(ctx context.Context, id string) (bool, error) {
	found, err := s.mutate(func(txs []entity.Transaction) ([]entity.Transaction, bool, error) {
		i := indexOf(txs, id)
		if i < 0 {
			return txs, false, nil
		}
		return append(txs[:i], txs[i+1:]...), true, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}

	return found, nil
}

// Close releases the Badger database
func (s *BadgerTransactionStore) Close() error {
	return s.db.Close()
}

// read loads the collection; a missing key is an empty collection
func (s *BadgerTransactionStore) read(txn *badger.Txn) ([]entity.Transaction, error) {
	item, err := txn.Get(s.key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return []entity.Transaction{}, nil
	}
	if err != nil {
		return nil, err
	}

	var txs []entity.Transaction
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &txs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}
	if txs == nil {
		txs = []entity.Transaction{}
	}

	return txs, nil
}

// mutate runs a read-modify-write cycle in a single Badger transaction.
// Nothing is written unless fn reports a change and the new array encodes.
func (s *BadgerTransactionStore) mutate(fn func([]entity.Transaction) ([]entity.Transaction, bool, error)) (bool, error) {
	changed := false

	err := s.db.Update(func(txn *badger.Txn) error {
		txs, err := s.read(txn)
		if err != nil {
			return err
		}

		next, ok, err := fn(txs)
		if err != nil || !ok {
			return err
		}

		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode collection: %w", err)
		}

		if err := txn.Set(s.key, data); err != nil {
			return err
		}
		changed = true
		return nil
	})

	return changed, err
}

func indexOf(txs []entity.Transaction, id string) int {
	for i := range txs {
		if txs[i].ID == id {
			return i
		}
	}
	return -1
}
