package db

import (
	"context"
	"testing"
	"time"

	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
	"github.com/dgraph-io/badger/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadgerStore(t *testing.T) *BadgerTransactionStore {
	t.Helper()
	store, err := OpenBadgerTransactionStore(BadgerConfig{
		InMemory:   true,
		Collection: "test-transactions",
	}, logger.NewJSONLogger(nil, logger.ErrorLevel))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleTx(id, amount string, typ entity.TransactionType, date entity.Date, desc string) entity.Transaction {
	return entity.Transaction{
		ID:          id,
		Amount:      decimal.RequireFromString(amount),
		Date:        date,
		Description: desc,
		Type:        typ,
	}
}

// assertSameTransactions compares collections field by field; decimals by value
func assertSameTransactions(t *testing.T, want, got []entity.Transaction) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Truef(t, want[i].Amount.Equal(got[i].Amount), "amount of %s: want %s got %s", want[i].ID, want[i].Amount, got[i].Amount)
		assert.Equal(t, want[i].Date.String(), got[i].Date.String())
		assert.Equal(t, want[i].Description, got[i].Description)
		assert.Equal(t, want[i].Type, got[i].Type)
	}
}

func TestBadgerStoreEmpty(t *testing.T) {
	store := newTestBadgerStore(t)

	txs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
}

func TestBadgerStoreCRUD(t *testing.T) {
	store := newTestBadgerStore(t)
	ctx := context.Background()

	first := sampleTx("a", "10.50", entity.Expense, entity.NewDate(2024, time.January, 2), "Lunch")
	second := sampleTx("b", "2500", entity.Income, entity.NewDate(2024, time.January, 31), "Salary")

	require.NoError(t, store.Insert(ctx, first))
	require.NoError(t, store.Insert(ctx, second))

	t.Run("Newest first", func(t *testing.T) {
		txs, err := store.List(ctx)
		require.NoError(t, err)
		assertSameTransactions(t, []entity.Transaction{second, first}, txs)
	})

	t.Run("Duplicate id rejected", func(t *testing.T) {
		err := store.Insert(ctx, first)
		assert.Error(t, err)

		txs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, txs, 2)
	})

	t.Run("Partial update", func(t *testing.T) {
		desc := "Team lunch"
		found, err := store.Update(ctx, "a", entity.TransactionPatch{Description: &desc})
		require.NoError(t, err)
		assert.True(t, found)

		txs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Team lunch", txs[1].Description)
		assert.True(t, txs[1].Amount.Equal(first.Amount))
	})

	t.Run("Update absent id is a no-op", func(t *testing.T) {
		desc := "ghost"
		found, err := store.Update(ctx, "missing", entity.TransactionPatch{Description: &desc})
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Delete", func(t *testing.T) {
		found, err := store.Delete(ctx, "b")
		require.NoError(t, err)
		assert.True(t, found)

		found, err = store.Delete(ctx, "b")
		require.NoError(t, err)
		assert.False(t, found)

		txs, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, "a", txs[0].ID)
	})
}

func TestBadgerStoreFailedWriteKeepsPriorState(t *testing.T) {
	store := newTestBadgerStore(t)
	ctx := context.Background()

	garbage := []byte("{not json")
	require.NoError(t, store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(store.key, garbage)
	}))

	err := store.Insert(ctx, sampleTx("a", "1", entity.Expense, entity.NewDate(2024, time.May, 1), "x"))
	assert.Error(t, err)

	_, err = store.List(ctx)
	assert.Error(t, err)

	require.NoError(t, store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(store.key)
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		assert.Equal(t, garbage, val)
		return err
	}))
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := BadgerConfig{Dir: dir, Collection: "thrift-trail-transactions"}
	log := logger.NewJSONLogger(nil, logger.ErrorLevel)
	ctx := context.Background()

	want := []entity.Transaction{
		sampleTx("3", "0.01", entity.Expense, entity.NewDate(2023, time.December, 31), "Gum"),
		sampleTx("2", "1234.5678", entity.Income, entity.NewDate(2024, time.February, 29), "Bonus"),
		sampleTx("1", "99.99", entity.Expense, entity.NewDate(2024, time.July, 4), "Fireworks"),
	}

	store, err := OpenBadgerTransactionStore(cfg, log)
	require.NoError(t, err)
	for i := len(want) - 1; i >= 0; i-- {
		require.NoError(t, store.Insert(ctx, want[i]))
	}
	require.NoError(t, store.Close())

	reopened, err := OpenBadgerTransactionStore(cfg, log)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.List(ctx)
	require.NoError(t, err)
	assertSameTransactions(t, want, got)
}

func TestBadgerStoreRequiresCollection(t *testing.T) {
	_, err := OpenBadgerTransactionStore(BadgerConfig{InMemory: true}, nil)
	assert.Error(t, err)
}
