// Package middleware provides request logging and panic recovery for the preview server.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Chain wraps a handler with request logging and panic recovery.
func Chain(logger *slog.Logger, adapter *derrors.HTTPErrorAdapter) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if adapter == nil {
		adapter = derrors.NewHTTPErrorAdapter(logger)
	}
	return func(next http.Handler) http.Handler {
		return logging(logger, recovery(logger, adapter, next))
	}
}

func logging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Debug("HTTP request",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(sw.status),
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000),
			logfields.RemoteAddr(r.RemoteAddr))
	})
}

func recovery(logger *slog.Logger, adapter *derrors.HTTPErrorAdapter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("HTTP handler panic",
					slog.Any("panic", rec),
					logfields.Method(r.Method),
					logfields.Path(r.URL.Path))
				err := derrors.NewError(derrors.CategoryInternal, "internal server error").
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build()
				adapter.WriteErrorResponse(w, r, err)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusWriter records the response status.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush lets streaming handlers such as SSE work through the chain.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
