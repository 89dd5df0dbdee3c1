package service

import (
	"context"

	"github.com/damon-houk/thrift-ledger/internal/domain/aggregate"
	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Lister returns the current ledger, newest first
type Lister interface {
	ListAll(ctx context.Context) []entity.Transaction
}

// AnalyticsService answers aggregate queries from a fresh listing on every call
type AnalyticsService struct {
	ledger Lister
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(ledger Lister) *AnalyticsService {
	return &AnalyticsService{ledger: ledger}
}

// TotalExpenses sums expense amounts over the current ledger
func (s *AnalyticsService) TotalExpenses(ctx context.Context) decimal.Decimal {
	return aggregate.TotalExpenses(s.ledger.ListAll(ctx))
}

// TotalIncome sums income amounts over the current ledger
func (s *AnalyticsService) TotalIncome(ctx context.Context) decimal.Decimal {
	return aggregate.TotalIncome(s.ledger.ListAll(ctx))
}

// MonthlyExpenseSeries groups expenses by month name; different years share a bucket
func (s *AnalyticsService) MonthlyExpenseSeries(ctx context.Context) []aggregate.MonthTotal {
	return aggregate.MonthlyExpenseSeries(s.ledger.ListAll(ctx))
}

// MonthlyIncomeExpenseSeries pairs income and expenses by month name; different
// years share a bucket
func (s *AnalyticsService) MonthlyIncomeExpenseSeries(ctx context.Context) []aggregate.MonthIncomeExpense {
	return aggregate.MonthlyIncomeExpenseSeries(s.ledger.ListAll(ctx))
}
