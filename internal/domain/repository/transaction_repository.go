// Package repository defines the storage contracts the ledger depends on
package repository

import (
	"context"

	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
)

// TransactionStore is the persistence boundary for the ledger collection.
// Every call is atomic on its own; there are no cross-call guarantees.
type TransactionStore interface {
	// List returns every stored transaction, newest first
	List(ctx context.Context) ([]entity.Transaction, error)

	// Insert stores a new transaction ahead of all existing ones
	Insert(ctx context.Context, tx entity.Transaction) error

	// Update overwrites the patched fields of the transaction with the given id.
	// It reports false, and no error, when no such transaction exists.
	Update(ctx context.Context, id string, patch entity.TransactionPatch) (bool, error)

	// Delete removes the transaction with the given id.
	// It reports false, and no error, when no such transaction exists.
	Delete(ctx context.Context, id string) (bool, error)

	// Close releases the underlying storage handle
	Close() error
}
