package prometheus

import (
	"time"

	"github.com/marmos91/dittodrive/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// storageMetrics is the Prometheus implementation of metrics.StorageMetrics.
type storageMetrics struct {
	blobOperationsTotal   *prometheus.CounterVec
	blobOperationDuration *prometheus.HistogramVec
	blobBytesTransferred  *prometheus.CounterVec
	uploadRollbacksTotal  prometheus.Counter
	cascadeDeleteRows     prometheus.Histogram
	cascadeDeleteDuration prometheus.Histogram
}

// NewStorageMetrics creates a new Prometheus-backed StorageMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewStorageMetrics() metrics.StorageMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &storageMetrics{
		blobOperationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodrive_blob_operations_total",
				Help: "Total number of blob store operations by backend, operation and status",
			},
			[]string{"backend", "operation", "status"},
		),
		blobOperationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittodrive_blob_operation_duration_milliseconds",
				Help: "Duration of blob store operations in milliseconds",
				Buckets: []float64{
					1,     // 1ms - local fs metadata
					10,    // 10ms - small local writes
					50,    // 50ms
					100,   // 100ms - small S3 objects
					500,   // 500ms
					1000,  // 1s - medium objects
					5000,  // 5s - large objects
					30000, // 30s - very large transfers
				},
			},
			[]string{"backend", "operation"},
		),
		blobBytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodrive_blob_bytes_transferred_total",
				Help: "Total bytes transferred to and from the blob backend",
			},
			[]string{"backend", "direction"},
		),
		uploadRollbacksTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittodrive_upload_rollbacks_total",
				Help: "Total number of uploads whose stored blob was removed after a metadata failure",
			},
		),
		cascadeDeleteRows: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "dittodrive_cascade_delete_rows",
				Help: "Distribution of rows removed per folder tree delete",
				Buckets: []float64{
					1,    // Empty folder
					5,    // Small tree
					10,   //
					50,   //
					100,  // Large tree
					500,  //
					1000, // Very large tree
				},
			},
		),
		cascadeDeleteDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "dittodrive_cascade_delete_duration_milliseconds",
				Help: "Duration of folder tree deletes in milliseconds",
				Buckets: []float64{
					1,     // 1ms
					10,    // 10ms
					50,    // 50ms
					100,   // 100ms
					500,   // 500ms
					1000,  // 1s
					5000,  // 5s
					30000, // 30s
				},
			},
		),
	}
}

func (m *storageMetrics) ObserveBlobOperation(backend, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	m.blobOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	m.blobOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds() * 1000)
}

func (m *storageMetrics) RecordBlobBytes(backend, direction string, bytes int64) {
	if m == nil || bytes <= 0 {
		return
	}
	m.blobBytesTransferred.WithLabelValues(backend, direction).Add(float64(bytes))
}

func (m *storageMetrics) RecordUploadRollback() {
	if m == nil {
		return
	}
	m.uploadRollbacksTotal.Inc()
}

func (m *storageMetrics) RecordCascadeDelete(rows int64, duration time.Duration) {
	if m == nil {
		return
	}
	m.cascadeDeleteRows.Observe(float64(rows))
	m.cascadeDeleteDuration.Observe(duration.Seconds() * 1000)
}
