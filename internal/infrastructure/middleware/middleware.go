// Package middleware holds the HTTP middleware chain shared by every route
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Keys for context values
type contextKey string

const (
	requestIDKey contextKey = "request_id"

	// RequestIDHeader carries the request id in both directions
	RequestIDHeader = "X-Request-ID"
)

// RequestIDMiddleware tags the request with the caller's X-Request-ID or a
// fresh one and echoes it back
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// LoggingMiddleware records one entry when a ledger request arrives and one
// when it completes. It must be installed with Router.Use so the matched
// route is known.
func LoggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			wrapper := newResponseWrapper(w)
			reqLog := log.WithFields(routeFields(r))

			reqLog.Info("Ledger request", map[string]interface{}{
				"query":       r.URL.RawQuery,
				"remote_addr": r.RemoteAddr,
				"body_bytes":  r.ContentLength,
			})

			next.ServeHTTP(wrapper, r)

			fields := map[string]interface{}{
				"status":      wrapper.statusCode,
				"duration_ms": time.Since(started).Milliseconds(),
				"body_bytes":  wrapper.contentLength,
			}
			switch {
			case wrapper.statusCode >= http.StatusInternalServerError:
				reqLog.Error("Ledger request failed", fields)
			case wrapper.statusCode >= http.StatusBadRequest:
				reqLog.Warn("Ledger request rejected", fields)
			default:
				reqLog.Info("Ledger request completed", fields)
			}
		})
	}
}

// routeFields identifies a request by route template and transaction id
func routeFields(r *http.Request) map[string]interface{} {
	fields := map[string]interface{}{
		"request_id": GetRequestID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	}
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			fields["route"] = tmpl
		}
	}
	if id, ok := mux.Vars(r)["id"]; ok {
		fields["transaction_id"] = id
	}
	return fields
}

// RecoverMiddleware turns a handler panic into a 500 JSON response
func RecoverMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapper := newResponseWrapper(w)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				requestID := GetRequestID(r.Context())
				log.Error("Recovered from panic", map[string]interface{}{
					"request_id": requestID,
					"method":     r.Method,
					"path":       r.URL.Path,
					"panic":      fmt.Sprint(rec),
					"stack":      string(debug.Stack()),
				})

				// headers already went out; nothing left to repair
				if wrapper.wroteHeader {
					return
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error":       "Internal server error",
					"status":      http.StatusInternalServerError,
					"description": "An unexpected error occurred",
					"request_id":  requestID,
				})
			}()

			next.ServeHTTP(wrapper, r)
		})
	}
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

// responseWrapper wraps http.ResponseWriter to capture the status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode    int
	contentLength int64
	wroteHeader   bool
}

func newResponseWrapper(w http.ResponseWriter) *responseWrapper {
	return &responseWrapper{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code
func (rw *responseWrapper) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Write captures the content length
func (rw *responseWrapper) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.contentLength += int64(n)
	return n, err
}
