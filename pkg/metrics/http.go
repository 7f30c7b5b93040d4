package metrics

import (
	"time"
)

// HTTPMetrics provides observability for the HTTP API.
//
// Implementations can collect metrics about request volume, latency,
// concurrency, and payload sizes. This interface is optional - pass nil to
// disable metrics collection with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	httpMetrics := prometheus.NewHTTPMetrics()
//	router := api.NewRouter(deps, httpMetrics)
//
//	// Without metrics (pass nil for zero overhead)
//	router := api.NewRouter(deps, nil)
type HTTPMetrics interface {
	// RecordRequest records a completed HTTP request with its method, route
	// pattern, status code and duration.
	//
	// Parameters:
	//   - method: HTTP method (e.g., "GET", "POST")
	//   - route: Matched route pattern (e.g., "/api/fs/folders/{folder_id}")
	//   - status: HTTP response status code
	//   - duration: Time taken to process the request
	RecordRequest(method string, route string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight request counter.
	// Should be called when starting to process a request. The matched
	// route is not known yet at that point, so in-flight requests are
	// tracked without labels.
	RecordRequestStart()

	// RecordRequestEnd decrements the in-flight request counter.
	// Should be called when request processing completes.
	RecordRequestEnd()

	// RecordResponseBytes records the size of a response body.
	// Used primarily for download endpoints.
	RecordResponseBytes(method string, route string, bytes int64)
}
