package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/logger"
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return "unknown"
}

type StatusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *StatusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *StatusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// LoggerMiddleware puts a request-scoped logger into the context, logs every
// completed request and turns panics into a 500.
func LoggerMiddleware(base zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := logger.WithTrace(r.Context(), base).With().
				Str("request_id", getRequestID(r.Context())).
				Logger()
			r = r.WithContext(l.WithContext(r.Context()))
			recorder := &StatusRecorder{ResponseWriter: w}

			defer func() {
				if rec := recover(); rec != nil {
					l.Error().
						Str("method", r.Method).
						Str("url", r.URL.String()).
						Str("error", fmt.Sprintf("%v", rec)).
						Bytes("stack", debug.Stack()).
						Msg("request panicked")
					respondError(recorder, r, http.StatusInternalServerError, "internal_error", "internal server error")
				}

				l.Info().
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Int("status", recorder.Status()).
					Dur("duration", time.Since(start)).
					Msg("request completed")
			}()

			next.ServeHTTP(recorder, r)
		})
	}
}
