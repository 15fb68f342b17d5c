package sentry

import (
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
)

// HTTPMiddleware returns a middleware that captures panics and 5xx responses in HTTP handlers.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
		}
		hub.Scope().SetRequest(r)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		ctx := sentry.SetHubOnContext(r.Context(), hub)

		defer func() {
			if err := recover(); err != nil {
				hub.RecoverWithContext(ctx, err)
				wrapped.WriteHeader(http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(wrapped, r.WithContext(ctx))

		if wrapped.statusCode >= http.StatusInternalServerError {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("route", r.URL.Path)
				hub.CaptureMessage(fmt.Sprintf("%s %s returned %d", r.Method, r.URL.Path, wrapped.statusCode))
			})
		}
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
