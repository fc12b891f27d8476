// internal/api/middleware.go
package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	apperrors "activities-service/internal/common/errors"
	"activities-service/internal/common/logger"
	"activities-service/internal/common/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const requestIDHeader = "X-Request-ID"

// Middleware wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middleware in declaration order, the first being outermost.
func Chain(handler http.Handler, middleware ...Middleware) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}

// RequestID echoes the caller's X-Request-ID or assigns a new one.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
				r.Header.Set(requestIDHeader, requestID)
			}
			w.Header().Set(requestIDHeader, requestID)
			next.ServeHTTP(w, r)
		})
	}
}

// Observe traces each request, records request metrics and writes one
// access log line per request.
func Observe(obs *observability.Observability, log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, span := obs.StartSpan(r.Context(), r.Method+" "+r.URL.Path)
			defer span.End()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			r = r.WithContext(ctx)
			next.ServeHTTP(rec, r)

			// set by ServeMux once the request was matched
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			} else {
				span.SetName(route)
			}
			duration := time.Since(start)

			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.status_code", rec.status),
				attribute.String("request.id", r.Header.Get(requestIDHeader)),
			)
			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}
			obs.RecordRequest(ctx, route, r.Method, rec.status, duration)

			log.Info("request served", map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"route":      route,
				"status":     rec.status,
				"bytes":      rec.bytes,
				"durationMs": duration.Milliseconds(),
				"requestId":  r.Header.Get(requestIDHeader),
			})
		})
	}
}

// Recover turns a handler panic into a 500 response.
func Recover(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					log.Error("panic recovered", map[string]interface{}{
						"method":    r.Method,
						"path":      r.URL.Path,
						"requestId": r.Header.Get(requestIDHeader),
						"panic":     fmt.Sprint(recovered),
						"stack":     string(debug.Stack()),
					})
					apperrors.WriteErrorResponse(w, http.StatusInternalServerError,
						apperrors.NewInternalError(fmt.Errorf("panic: %v", recovered)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(status int) {
	if !s.wroteHeader {
		s.status = status
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// NewRouter builds the full HTTP handler: API routes plus any extra routes,
// wrapped in the standard middleware.
func NewRouter(h *Handler, obs *observability.Observability, log logger.Logger, extra map[string]http.Handler) http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	for pattern, handler := range extra {
		mux.Handle(pattern, handler)
	}
	return Chain(mux, RequestID(), Observe(obs, log), Recover(log))
}
