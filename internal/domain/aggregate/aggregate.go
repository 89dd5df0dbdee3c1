// Package aggregate derives summary values from a ledger snapshot.
//
// Every function is pure: it reads only the slice it is given and keeps no
// state between calls, so results always reflect the snapshot passed in.
//
// Monthly series group by calendar month only. Transactions from different
// years that share a month land in the same bucket, so a ledger spanning
// January 2023 and January 2024 reports a single "Jan" total. Callers that need
// per-year figures must split the snapshot by year before calling.
package aggregate

import (
	"time"

	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MonthTotal is one bucket of the monthly expense series
type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// MonthIncomeExpense is one bucket of the monthly income/expense series
type MonthIncomeExpense struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// Summary holds the headline figures of a ledger
type Summary struct {
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Balance       decimal.Decimal `json:"balance"`
}

// MonthLabel returns the short English month name used as a bucket key
func MonthLabel(m time.Month) string {
	return m.String()[:3]
}

func sumByType(txs []entity.Transaction, typ entity.TransactionType) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type == typ {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// TotalExpenses sums the amounts of all expense transactions
func TotalExpenses(txs []entity.Transaction) decimal.Decimal {
	return sumByType(txs, entity.Expense)
}

// TotalIncome sums the amounts of all income transactions
func TotalIncome(txs []entity.Transaction) decimal.Decimal {
	return sumByType(txs, entity.Income)
}

// Summarize computes income, expenses and balance from one snapshot
func Summarize(txs []entity.Transaction) Summary {
	income := TotalIncome(txs)
	expenses := TotalExpenses(txs)

	return Summary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		Balance:       income.Sub(expenses),
	}
}

// MonthlyExpenseSeries sums expenses per calendar month, ordered Jan to Dec.
// Only months with at least one expense are returned. Years are conflated.
func MonthlyExpenseSeries(txs []entity.Transaction) []MonthTotal {
	var buckets [12]decimal.Decimal
	var seen [12]bool

	for _, tx := range txs {
		if tx.Type != entity.Expense {
			continue
		}
		i := tx.Date.Month() - 1
		buckets[i] = buckets[i].Add(tx.Amount)
		seen[i] = true
	}

	series := make([]MonthTotal, 0, 12)
	for i := range buckets {
		if !seen[i] {
			continue
		}
		series = append(series, MonthTotal{
			Month: MonthLabel(time.Month(i + 1)),
			Total: buckets[i],
		})
	}
	return series
}

// MonthlyIncomeExpenseSeries pairs income and expense sums per calendar month,
// ordered Jan to Dec. Only months with any transaction are returned.
// Years are conflated.
func MonthlyIncomeExpenseSeries(txs []entity.Transaction) []MonthIncomeExpense {
	var buckets [12]MonthIncomeExpense
	var seen [12]bool

	for _, tx := range txs {
		i := tx.Date.Month() - 1
		b := &buckets[i]
		switch tx.Type {
		case entity.Income:
			b.Income = b.Income.Add(tx.Amount)
		case entity.Expense:
			b.Expenses = b.Expenses.Add(tx.Amount)
		default:
			continue
		}
		seen[i] = true
	}

	series := make([]MonthIncomeExpense, 0, 12)
	for i := range buckets {
		if !seen[i] {
			continue
		}
		b := buckets[i]
		b.Month = MonthLabel(time.Month(i + 1))
		series = append(series, b)
	}
	return series
}
