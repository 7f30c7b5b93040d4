package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/dittodrive/pkg/metrics"
)

// Metrics returns a middleware that records request counts, latencies,
// in-flight requests and response sizes.
//
// Requests are labeled with the chi route pattern (e.g.
// "/api/fs/folders/{folder_id}") rather than the raw URL path to keep
// metric cardinality bounded. The pattern is only known after routing, so
// recording happens once the handler returns.
//
// A nil m disables instrumentation with zero overhead.
func Metrics(m metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.RecordRequestStart()
			defer m.RecordRequestEnd()

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}

			m.RecordRequest(r.Method, route, ww.Status(), time.Since(start))
			m.RecordResponseBytes(r.Method, route, int64(ww.BytesWritten()))
		})
	}
}
