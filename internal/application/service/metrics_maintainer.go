package service

import (
	"context"
	"sync"
	"time"

	"github.com/damon-houk/thrift-ledger/internal/domain/aggregate"
	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

// SnapshotSource provides a strict read of the whole ledger
type SnapshotSource interface {
	Snapshot(ctx context.Context) ([]entity.Transaction, error)
}

// MetricsMaintainer caches total income, total expenses and balance.
// Every refresh recomputes all three from one snapshot, never from deltas.
type MetricsMaintainer struct {
	source SnapshotSource
	logger logger.Logger

	mu          sync.RWMutex
	summary     aggregate.Summary
	refreshedAt time.Time
}

// NewMetricsMaintainer creates a maintainer with an all-zero summary.
// Call Refresh once before serving to load the current ledger.
func NewMetricsMaintainer(source SnapshotSource, log logger.Logger) *MetricsMaintainer {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &MetricsMaintainer{
		source: source,
		logger: log.WithField("service", "metrics"),
		summary: aggregate.Summary{
			TotalIncome:   decimal.Zero,
			TotalExpenses: decimal.Zero,
			Balance:       decimal.Zero,
		},
	}
}

// Refresh recomputes the cached summary. On a failed read the previous
// summary is kept.
func (m *MetricsMaintainer) Refresh(ctx context.Context) error {
	txs, err := m.source.Snapshot(ctx)
	if err != nil {
		m.logger.Warn("Keeping previous summary, ledger read failed", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	summary := aggregate.Summarize(txs)

	m.mu.Lock()
	m.summary = summary
	m.refreshedAt = time.Now()
	m.mu.Unlock()

	m.logger.Debug("Summary recomputed", map[string]interface{}{
		"transactions":   len(txs),
		"total_income":   summary.TotalIncome.String(),
		"total_expenses": summary.TotalExpenses.String(),
		"balance":        summary.Balance.String(),
	})
	return nil
}

// LedgerChanged implements LedgerObserver
func (m *MetricsMaintainer) LedgerChanged(ctx context.Context) {
	_ = m.Refresh(ctx)
}

// Summary returns the cached figures
func (m *MetricsMaintainer) Summary() aggregate.Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summary
}

// RefreshedAt reports when the summary was last recomputed
func (m *MetricsMaintainer) RefreshedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshedAt
}

// TotalIncome returns the cached sum of income amounts
func (m *MetricsMaintainer) TotalIncome() decimal.Decimal { return m.Summary().TotalIncome }

// TotalExpenses returns the cached sum of expense amounts
func (m *MetricsMaintainer) TotalExpenses() decimal.Decimal { return m.Summary().TotalExpenses }

// Balance returns cached income minus cached expenses
func (m *MetricsMaintainer) Balance() decimal.Decimal { return m.Summary().Balance }
