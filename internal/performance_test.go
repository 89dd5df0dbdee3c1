package internal

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/damon-houk/thrift-ledger/internal/application/service"
	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/db"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformance(t *testing.T) {
	// Skip in short mode or CI
	if testing.Short() {
		t.Skip("Skipping performance test in short mode")
	}

	log := logger.NewJSONLogger(io.Discard, logger.ErrorLevel)

	store, err := db.OpenBadgerTransactionStore(db.BadgerConfig{
		Dir:        t.TempDir(),
		Collection: "perf-transactions",
	}, log)
	require.NoError(t, err)
	defer store.Close()

	txService := service.NewTransactionService(store, log)
	maintainer := service.NewMetricsMaintainer(txService, log)
	txService.Subscribe(maintainer)
	analytics := service.NewAnalyticsService(txService)

	// Performance test configuration
	numTransactions := 100
	concurrency := 10

	t.Log("Preloading test data...")
	txIDs := preloadTestData(t, txService, numTransactions)

	// Every worker races the read-modify-write of the single collection
	// record; the service must not lose any of them.
	t.Run("Concurrent creation", func(t *testing.T) {
		startTime := time.Now()

		wg := sync.WaitGroup{}
		wg.Add(concurrency)

		txPerWorker := numTransactions / concurrency

		for i := 0; i < concurrency; i++ {
			go func(workerID int) {
				defer wg.Done()

				ctx := context.Background()
				for j := 0; j < txPerWorker; j++ {
					typ := entity.Expense
					if j%3 == 0 {
						typ = entity.Income
					}
					_, err := txService.Create(ctx, entity.TransactionInput{
						Amount:      decimal.NewFromInt(100 + int64(rand.Intn(10000))).Shift(-2),
						Date:        entity.DateOf(time.Now().AddDate(0, 0, -rand.Intn(365))),
						Description: fmt.Sprintf("Test transaction %d-%d", workerID, j),
						Type:        typ,
					})
					if err != nil {
						t.Errorf("Error creating transaction: %v", err)
					}
				}
			}(i)
		}

		wg.Wait()
		duration := time.Since(startTime)

		throughput := float64(numTransactions) / duration.Seconds()
		t.Logf("Transaction creation: %d transactions in %v (%.2f tx/sec)",
			numTransactions, duration, throughput)

		assert.Len(t, txService.ListAll(context.Background()), 2*numTransactions)
	})

	t.Run("Concurrent retrieval", func(t *testing.T) {
		startTime := time.Now()

		wg := sync.WaitGroup{}
		wg.Add(concurrency)

		txPerWorker := numTransactions / concurrency

		for i := 0; i < concurrency; i++ {
			go func(workerID int) {
				defer wg.Done()

				ctx := context.Background()
				for j := 0; j < txPerWorker; j++ {
					idx := (workerID*txPerWorker + j) % len(txIDs)
					if _, err := txService.Get(ctx, txIDs[idx]); err != nil {
						t.Errorf("Error retrieving transaction: %v", err)
					}
				}
			}(i)
		}

		wg.Wait()
		duration := time.Since(startTime)

		throughput := float64(numTransactions) / duration.Seconds()
		t.Logf("Transaction retrieval: %d transactions in %v (%.2f tx/sec)",
			numTransactions, duration, throughput)
	})

	t.Run("Summary matches a fresh aggregation", func(t *testing.T) {
		ctx := context.Background()
		startTime := time.Now()
		require.NoError(t, maintainer.Refresh(ctx))
		t.Logf("Summary refresh over %d transactions took %v", 2*numTransactions, time.Since(startTime))

		assert.True(t, maintainer.TotalIncome().Equal(analytics.TotalIncome(ctx)))
		assert.True(t, maintainer.TotalExpenses().Equal(analytics.TotalExpenses(ctx)))
		assert.True(t, maintainer.Balance().Equal(maintainer.TotalIncome().Sub(maintainer.TotalExpenses())))
	})
}

// preloadTestData creates test transactions and returns their IDs
func preloadTestData(t *testing.T, txService *service.TransactionService, count int) []string {
	ids := make([]string, count)
	ctx := context.Background()

	for i := 0; i < count; i++ {
		tx, err := txService.Create(ctx, entity.TransactionInput{
			Amount:      decimal.NewFromInt(100 + int64(i)),
			Date:        entity.DateOf(time.Now().AddDate(0, 0, -i%30)),
			Description: fmt.Sprintf("Preloaded transaction %d", i),
			Type:        entity.Expense,
		})
		if err != nil {
			t.Fatalf("Failed to preload test data: %v", err)
		}

		ids[i] = tx.ID
	}

	return ids
}
