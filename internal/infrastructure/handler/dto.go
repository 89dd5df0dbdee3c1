package handler

import (
	"time"

	"github.com/damon-houk/thrift-ledger/internal/domain/aggregate"
	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// TransactionRequest represents the request body for creating or replacing a transaction
type TransactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
}

// TransactionListResponse wraps a listing
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Count        int                   `json:"count"`
}

// SummaryResponse carries the cached headline figures
type SummaryResponse struct {
	TotalIncome   float64   `json:"total_income"`
	TotalExpenses float64   `json:"total_expenses"`
	Balance       float64   `json:"balance"`
	RefreshedAt   time.Time `json:"refreshed_at"`
}

// MonthTotalResponse is one bucket of the monthly expense series
type MonthTotalResponse struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// MonthIncomeExpenseResponse is one bucket of the monthly income/expense series
type MonthIncomeExpenseResponse struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// toInput converts the request into a domain payload. An empty date maps to
// the zero date so validation reports it as missing.
func (r TransactionRequest) toInput() (entity.TransactionInput, error) {
	var date entity.Date
	if r.Date != "" {
		parsed, err := entity.ParseDate(r.Date)
		if err != nil {
			return entity.TransactionInput{}, err
		}
		date = parsed
	}

	return entity.TransactionInput{
		Amount:      r.Amount,
		Date:        date,
		Description: r.Description,
		Type:        entity.TransactionType(r.Type),
	}, nil
}

func toTransactionResponse(tx entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		Amount:      tx.Amount.InexactFloat64(),
		Date:        tx.Date.String(),
		Description: tx.Description,
		Type:        string(tx.Type),
	}
}

func toTransactionListResponse(txs []entity.Transaction) TransactionListResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return TransactionListResponse{Transactions: out, Count: len(out)}
}

func toSummaryResponse(s aggregate.Summary, refreshedAt time.Time) SummaryResponse {
	return SummaryResponse{
		TotalIncome:   s.TotalIncome.InexactFloat64(),
		TotalExpenses: s.TotalExpenses.InexactFloat64(),
		Balance:       s.Balance.InexactFloat64(),
		RefreshedAt:   refreshedAt,
	}
}

func toMonthTotalResponses(series []aggregate.MonthTotal) []MonthTotalResponse {
	out := make([]MonthTotalResponse, 0, len(series))
	for _, m := range series {
		out = append(out, MonthTotalResponse{Month: m.Month, Total: m.Total.InexactFloat64()})
	}
	return out
}

func toMonthIncomeExpenseResponses(series []aggregate.MonthIncomeExpense) []MonthIncomeExpenseResponse {
	out := make([]MonthIncomeExpenseResponse, 0, len(series))
	for _, m := range series {
		out = append(out, MonthIncomeExpenseResponse{
			Month:    m.Month,
			Income:   m.Income.InexactFloat64(),
			Expenses: m.Expenses.InexactFloat64(),
		})
	}
	return out
}
