package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	// Setup
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Get request ID from context
		requestID := r.Context().Value(requestIDKey)
		assert.NotNil(t, requestID)

		// Write it to the response for testing
		w.Write([]byte(requestID.(string)))
	})

	middleware := RequestIDMiddleware(nextHandler)

	// Create test request
	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	// Test with no existing request ID
	middleware.ServeHTTP(w, req)

	// Verify response
	assert.Equal(t, http.StatusOK, w.Code)
	requestID := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, w.Body.String())

	// Test with existing request ID
	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-id-123")
	w = httptest.NewRecorder()

	middleware.ServeHTTP(w, req)

	// Verify existing ID was preserved
	assert.Equal(t, "test-id-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "test-id-123", w.Body.String())
}

func TestGetRequestID(t *testing.T) {
	// Test with valid request ID
	ctx := context.WithValue(context.Background(), requestIDKey, "test-id-123")
	assert.Equal(t, "test-id-123", GetRequestID(ctx))

	// Test with no request ID
	assert.Equal(t, "unknown", GetRequestID(context.Background()))
}

func TestMiddlewareChain(t *testing.T) {
	// This test verifies that the middleware chain correctly preserves the request ID
	var buf bytes.Buffer
	log := logger.NewJSONLogger(&buf, logger.InfoLevel)

	// Create a chain of middleware with a handler that returns the request ID
	finalHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := GetRequestID(r.Context())
		w.Write([]byte(requestID))
	})

	// Apply RequestIDMiddleware then LoggingMiddleware
	chain := RequestIDMiddleware(LoggingMiddleware(log)(finalHandler))

	// Create a request with a known ID
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-id-123")
	w := httptest.NewRecorder()

	// Process the request
	chain.ServeHTTP(w, req)

	// Check that the final handler received the request ID
	assert.Equal(t, "test-id-123", w.Body.String())

	// Check that the request ID appears in logs
	logs := buf.String()
	assert.Contains(t, logs, "test-id-123", "Request ID should be in logs")
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewJSONLogger(&buf, logger.InfoLevel)

	handler := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest("DELETE", "/transactions/abc", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "Ledger request rejected", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(len("short and stout")), entry["body_bytes"])
	assert.Equal(t, "/transactions/abc", entry["path"])
	assert.NotContains(t, entry, "route")
}

func TestLoggingMiddlewareRecordsRoute(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewJSONLogger(&buf, logger.InfoLevel)

	router := mux.NewRouter()
	router.Use(RequestIDMiddleware, LoggingMiddleware(log))
	router.HandleFunc("/transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods("DELETE")
	router.HandleFunc("/summary", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "store offline", http.StatusServiceUnavailable)
	}).Methods("GET")

	entries := func(t *testing.T) []map[string]interface{} {
		t.Helper()
		var out []map[string]interface{}
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(line), &entry))
			out = append(out, entry)
		}
		return out
	}

	t.Run("Transaction route", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest("DELETE", "/transactions/0190a1b2-tx", nil)
		req.Header.Set(RequestIDHeader, "req-7")
		router.ServeHTTP(httptest.NewRecorder(), req)

		logged := entries(t)
		require.Len(t, logged, 2)
		for _, entry := range logged {
			assert.Equal(t, "/transactions/{id}", entry["route"])
			assert.Equal(t, "0190a1b2-tx", entry["transaction_id"])
			assert.Equal(t, "req-7", entry["request_id"])
		}
		assert.Equal(t, "Ledger request completed", logged[1]["message"])
		assert.Equal(t, float64(http.StatusNoContent), logged[1]["status"])
	})

	t.Run("Server failure logs at error", func(t *testing.T) {
		buf.Reset()
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/summary", nil))

		logged := entries(t)
		require.Len(t, logged, 2)
		assert.Equal(t, "/summary", logged[1]["route"])
		assert.NotContains(t, logged[1], "transaction_id")
		assert.Equal(t, "error", logged[1]["level"])
		assert.Equal(t, "Ledger request failed", logged[1]["message"])
	})
}

func TestRecoverMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewJSONLogger(&buf, logger.InfoLevel)

	t.Run("Panic becomes 500", func(t *testing.T) {
		buf.Reset()
		chain := RequestIDMiddleware(RecoverMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})))

		req := httptest.NewRequest("GET", "/summary", nil)
		req.Header.Set("X-Request-ID", "req-42")
		w := httptest.NewRecorder()
		chain.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "req-42", body["request_id"])
		assert.Equal(t, float64(http.StatusInternalServerError), body["status"])

		assert.Contains(t, buf.String(), "Recovered from panic")
		assert.Contains(t, buf.String(), "boom")
	})

	t.Run("Passes through normal responses", func(t *testing.T) {
		handler := RecoverMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("DELETE", "/transactions/x", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Abort handler panic propagates", func(t *testing.T) {
		handler := RecoverMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		}))

		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
		})
	})
}
