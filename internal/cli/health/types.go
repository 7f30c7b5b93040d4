// Package health declares the wire shape of the server's /health payload
// for CLI commands that poll it.
package health

// StatusHealthy is the Status value a healthy server reports.
const StatusHealthy = "healthy"

// Response mirrors the JSON the health endpoints return. Data carries the
// liveness details; Error is set only on unhealthy responses.
type Response struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Data      struct {
		Service   string `json:"service"`
		StartedAt string `json:"started_at"`
		Uptime    string `json:"uptime"`
		UptimeSec int64  `json:"uptime_sec"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// Healthy reports whether the response carries the healthy status.
func (r Response) Healthy() bool {
	return r.Status == StatusHealthy
}
