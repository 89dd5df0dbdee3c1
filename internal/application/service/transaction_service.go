// Package service holds the ledger's application services: the transaction
// repository, on-demand analytics and the cached summary maintainer.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
	"github.com/damon-houk/thrift-ledger/internal/domain/repository"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
	"github.com/google/uuid"
)

// LedgerObserver is notified after every successful mutation
type LedgerObserver interface {
	LedgerChanged(ctx context.Context)
}

// IDGenerator produces a fresh transaction id
type IDGenerator func() (string, error)

// NewV7ID returns a time-ordered UUIDv7: millisecond timestamp, monotonic
// counter and random bits
func NewV7ID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// TransactionService is the single writer of the ledger collection
type TransactionService struct {
	store  repository.TransactionStore
	logger logger.Logger
	newID  IDGenerator

	// serializes mutations and observer notification
	mu        sync.Mutex
	observers []LedgerObserver
}

// NewTransactionService creates a new transaction service
func NewTransactionService(store repository.TransactionStore, log logger.Logger) *TransactionService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &TransactionService{
		store:  store,
		logger: log.WithField("service", "transactions"),
		newID:  NewV7ID,
	}
}

// WithIDGenerator replaces the id source
func (s *TransactionService) WithIDGenerator(gen IDGenerator) *TransactionService {
	s.newID = gen
	return s
}

// Subscribe registers an observer for ledger mutations
func (s *TransactionService) Subscribe(o LedgerObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Snapshot reads the full collection, newest first, reporting read failures
func (s *TransactionService) Snapshot(ctx context.Context) ([]entity.Transaction, error) {
	txs, err := s.store.List(ctx)
	if err != nil {
		return nil, &entity.PersistenceError{Op: "list transactions", Err: err}
	}
	return txs, nil
}

// ListAll returns every transaction, newest first. A failed read is logged
// and yields an empty ledger.
func (s *TransactionService) ListAll(ctx context.Context) []entity.Transaction {
	txs, err := s.Snapshot(ctx)
	if err != nil {
		s.logger.Error("Failed to list transactions, returning empty ledger", map[string]interface{}{
			"error": err.Error(),
		})
		return []entity.Transaction{}
	}
	return txs
}

// Get returns the transaction with the given id
func (s *TransactionService) Get(ctx context.Context, id string) (*entity.Transaction, error) {
	txs, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	for i := range txs {
		if txs[i].ID == id {
			return &txs[i], nil
		}
	}
	return nil, &entity.NotFoundError{ID: id}
}

// Search filters and sorts the ledger the way the list view presents it
func (s *TransactionService) Search(ctx context.Context, opts ListOptions) []entity.Transaction {
	return opts.Apply(s.ListAll(ctx))
}

// Create validates the input, assigns a fresh id and stores the transaction
func (s *TransactionService) Create(ctx context.Context, in entity.TransactionInput) (*entity.Transaction, error) {
	if err := in.Validate(); err != nil {
		s.logger.Warn("Rejected transaction", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate transaction id: %w", err)
	}
	tx := entity.NewTransaction(id, in)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Insert(ctx, tx); err != nil {
		s.logger.Error("Failed to store transaction", map[string]interface{}{
			"id":    id,
			"error": err.Error(),
		})
		return nil, &entity.PersistenceError{Op: "insert transaction", Err: err}
	}

	s.logger.Info("Transaction created", map[string]interface{}{
		"id":     tx.ID,
		"type":   tx.Type,
		"amount": tx.Amount.String(),
		"date":   tx.Date.String(),
	})

	s.notify(ctx)
	return &tx, nil
}

// Update replaces every mutable field of an existing transaction.
// An id that is not stored yields a NotFoundError and changes nothing.
func (s *TransactionService) Update(ctx context.Context, tx entity.Transaction) (*entity.Transaction, error) {
	if strings.TrimSpace(tx.ID) == "" {
		return nil, &entity.NotFoundError{ID: tx.ID}
	}
	if err := tx.Validate(); err != nil {
		s.logger.Warn("Rejected transaction update", map[string]interface{}{
			"id":    tx.ID,
			"error": err.Error(),
		})
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found, err := s.store.Update(ctx, tx.ID, tx.FullPatch())
	if err != nil {
		s.logger.Error("Failed to update transaction", map[string]interface{}{
			"id":    tx.ID,
			"error": err.Error(),
		})
		return nil, &entity.PersistenceError{Op: "update transaction", Err: err}
	}
	if !found {
		s.logger.Warn("Update targeted unknown transaction", map[string]interface{}{
			"id": tx.ID,
		})
		return nil, &entity.NotFoundError{ID: tx.ID}
	}

	s.logger.Info("Transaction updated", map[string]interface{}{
		"id":     tx.ID,
		"type":   tx.Type,
		"amount": tx.Amount.String(),
	})

	s.notify(ctx)
	updated := tx
	return &updated, nil
}

// Delete removes the transaction with the given id; unknown ids are ignored
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found, err := s.store.Delete(ctx, id)
	if err != nil {
		s.logger.Error("Failed to delete transaction", map[string]interface{}{
			"id":    id,
			"error": err.Error(),
		})
		return &entity.PersistenceError{Op: "delete transaction", Err: err}
	}

	s.logger.Info("Transaction deleted", map[string]interface{}{
		"id":      id,
		"existed": found,
	})

	s.notify(ctx)
	return nil
}

// notify must be called with s.mu held
func (s *TransactionService) notify(ctx context.Context) {
	for _, o := range s.observers {
		o.LedgerChanged(ctx)
	}
}
