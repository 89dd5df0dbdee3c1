package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
)

// sendJSON writes a JSON body with the given status
func sendJSON(w http.ResponseWriter, log logger.Logger, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	sendJSON(w, log, statusCode, ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	})
}

// sendServiceError maps a service error onto its HTTP status
func sendServiceError(w http.ResponseWriter, log logger.Logger, err error, requestID string) {
	var verr *entity.ValidationError

	switch {
	case errors.As(err, &verr):
		log.Warn("Transaction validation failed", map[string]interface{}{
			"request_id": requestID,
			"field":      verr.Field,
			"error":      err.Error(),
		})
		sendErrorResponse(w, log, "Invalid transaction", err.Error(), http.StatusBadRequest, requestID)
	case errors.Is(err, entity.ErrNotFound):
		log.Warn("Transaction not found", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, log, "Transaction not found",
			"The requested transaction could not be found", http.StatusNotFound, requestID)
	case errors.Is(err, entity.ErrPersistence):
		log.Error("Storage failure", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, log, "Storage unavailable",
			"The ledger could not be read or written, try again later", http.StatusServiceUnavailable, requestID)
	default:
		log.Error("Unexpected error", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, log, "Internal server error",
			"An unexpected error occurred", http.StatusInternalServerError, requestID)
	}
}
