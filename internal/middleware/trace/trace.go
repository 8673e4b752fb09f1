// Package trace logs each request and records its latency by route.
package trace

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"budgetviz/internal/log"
	"budgetviz/internal/metrics"
)

const unmatchedRoute = "unmatched"

// Middleware attaches a request-scoped logger, then logs completion and
// observes the latency histogram. chi's RequestID must run first for the
// logger to carry the request id.
func Middleware(logger *log.Logger, extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		timed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)

			metrics.HTTPRequestDuration.
				WithLabelValues(r.Method, RoutePattern(r), metrics.StatusClass(status)).
				Observe(duration.Seconds())

			clientIP := ""
			if extractIP != nil {
				clientIP = extractIP(r)
			}
			log.NewStructuredLogger(log.FromContext(r.Context())).
				LogHTTPEnd(r.Context(), r, status, duration, clientIP)
		})
		return log.Middleware(logger, requestID)(timed)
	}
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

// RoutePattern returns the matched chi pattern so metric labels stay bounded.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}
