package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/damon-houk/thrift-ledger/internal/application/service"
	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/export"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// TransactionHandler handles HTTP requests for transactions
type TransactionHandler struct {
	service *service.TransactionService
	logger  logger.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(service *service.TransactionService, log logger.Logger) *TransactionHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &TransactionHandler{
		service: service,
		logger:  log,
	}
}

// ListTransactions returns the ledger, optionally filtered and sorted
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()

	opts, err := service.ParseListOptions(q.Get("search"), q.Get("sort"), q.Get("order"))
	if err != nil {
		h.logger.Warn("Invalid list options", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Invalid query", err.Error(), http.StatusBadRequest, requestID)
		return
	}

	txs := h.service.Search(r.Context(), opts)

	h.logger.Debug("Transactions listed", map[string]interface{}{
		"request_id": requestID,
		"count":      len(txs),
		"search":     opts.Search,
		"sort":       opts.SortBy,
	})

	sendJSON(w, h.logger, http.StatusOK, toTransactionListResponse(txs))
}

// CreateTransaction handles the creation of a new transaction
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	req, ok := h.decodeRequest(w, r, requestID)
	if !ok {
		return
	}

	in, err := req.toInput()
	if err != nil {
		h.sendInvalidDate(w, req.Date, err, requestID)
		return
	}

	tx, err := h.service.Create(r.Context(), in)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	h.logger.Info("Transaction created successfully", map[string]interface{}{
		"request_id": requestID,
		"id":         tx.ID,
	})

	w.Header().Set("Location", "/transactions/"+tx.ID)
	sendJSON(w, h.logger, http.StatusCreated, toTransactionResponse(*tx))
}

// GetTransaction handles retrieving a transaction by ID
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := mux.Vars(r)["id"]

	tx, err := h.service.Get(r.Context(), id)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	sendJSON(w, h.logger, http.StatusOK, toTransactionResponse(*tx))
}

// UpdateTransaction replaces every mutable field of the transaction named in the path
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := mux.Vars(r)["id"]

	req, ok := h.decodeRequest(w, r, requestID)
	if !ok {
		return
	}

	in, err := req.toInput()
	if err != nil {
		h.sendInvalidDate(w, req.Date, err, requestID)
		return
	}

	updated, err := h.service.Update(r.Context(), entity.NewTransaction(id, in))
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	h.logger.Info("Transaction updated successfully", map[string]interface{}{
		"request_id": requestID,
		"id":         id,
	})

	sendJSON(w, h.logger, http.StatusOK, toTransactionResponse(*updated))
}

// DeleteTransaction removes a transaction; unknown ids still answer 204
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.service.Delete(r.Context(), id); err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExportTransactions streams the whole ledger as a JSON, YAML or CSV attachment
func (h *TransactionHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	format := r.URL.Query().Get("format")

	enc, err := export.ForFormat(format)
	if err != nil {
		sendErrorResponse(w, h.logger, "Unsupported export format",
			"Format must be json, yaml or csv", http.StatusBadRequest, requestID)
		return
	}

	txs, err := h.service.Snapshot(r.Context())
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, txs); err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	filename := fmt.Sprintf("ledger-%s.%s", time.Now().UTC().Format("20060102"), enc.Extension())

	h.logger.Info("Ledger exported", map[string]interface{}{
		"request_id": requestID,
		"format":     enc.Extension(),
		"count":      len(txs),
	})

	w.Header().Set("Content-Type", enc.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// RegisterRoutes registers the transaction handler routes
func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	// export before {id} so it is not captured as an id
	router.HandleFunc("/transactions/export", h.ExportTransactions).Methods("GET")
	router.HandleFunc("/transactions", h.ListTransactions).Methods("GET")
	router.HandleFunc("/transactions", h.CreateTransaction).Methods("POST")
	router.HandleFunc("/transactions/{id}", h.GetTransaction).Methods("GET")
	router.HandleFunc("/transactions/{id}", h.UpdateTransaction).Methods("PUT")
	router.HandleFunc("/transactions/{id}", h.DeleteTransaction).Methods("DELETE")

	h.logger.Info("Transaction routes registered", map[string]interface{}{
		"routes": []string{
			"GET /transactions",
			"POST /transactions",
			"GET /transactions/export",
			"GET /transactions/{id}",
			"PUT /transactions/{id}",
			"DELETE /transactions/{id}",
		},
	})
}

func (h *TransactionHandler) decodeRequest(w http.ResponseWriter, r *http.Request, requestID string) (TransactionRequest, bool) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The request body could not be parsed as valid JSON", http.StatusBadRequest, requestID)
		return TransactionRequest{}, false
	}
	return req, true
}

func (h *TransactionHandler) sendInvalidDate(w http.ResponseWriter, date string, err error, requestID string) {
	h.logger.Warn("Invalid date format", map[string]interface{}{
		"request_id": requestID,
		"date":       date,
		"error":      err.Error(),
	})
	sendErrorResponse(w, h.logger, "Invalid date format",
		"Date must be in YYYY-MM-DD format", http.StatusBadRequest, requestID)
}
