// internal/infrastructure/middleware/middleware.go
package middleware

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Keys for context values
type contextKey string

const (
	requestIDKey contextKey = "request_id"

	// RequestIDHeader carries the request ID between the page and the collection server
	RequestIDHeader = "X-Request-ID"

	unknownRequestID = "unknown"
)

// RequestIDMiddleware adds a unique request ID to each request, reusing an incoming one
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), requestID)))
	})
}

// LoggingMiddleware logs requests and responses
func LoggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			wrapper := newResponseWrapper(w)
			requestID := GetRequestID(r.Context())

			fields := logger.Fields{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
			}
			// Set when the middleware runs inside a matched mux route
			if username, ok := mux.Vars(r)["username"]; ok {
				fields["username"] = username
			}

			log.Debug("Request received", logger.Fields{
				"request_id":     requestID,
				"query":          r.URL.RawQuery,
				"remote_addr":    r.RemoteAddr,
				"user_agent":     r.UserAgent(),
				"content_type":   r.Header.Get("Content-Type"),
				"content_length": r.ContentLength,
			})

			next.ServeHTTP(wrapper, r)

			fields["status"] = wrapper.statusCode
			fields["duration_ms"] = time.Since(startTime).Milliseconds()
			fields["content_length"] = wrapper.contentLength

			switch {
			case wrapper.statusCode >= http.StatusInternalServerError:
				log.Error("Response sent", fields)
			case wrapper.statusCode >= http.StatusBadRequest:
				log.Warn("Response sent", fields)
			default:
				log.Info("Response sent", fields)
			}
		})
	}
}

// RecoveryMiddleware turns a panicking handler into a 500 response
func RecoveryMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("Handler panicked", logger.Fields{
						"request_id": GetRequestID(r.Context()),
						"panic":      rec,
						"stack":      string(debug.Stack()),
					})
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WithRequestID stores a request ID in ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return unknownRequestID
	}
	return requestID
}

// HasRequestID reports whether ctx carries a request ID
func HasRequestID(ctx context.Context) bool {
	return GetRequestID(ctx) != unknownRequestID
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
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Write captures the content length
func (rw *responseWrapper) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.contentLength += int64(n)
	return n, err
}
