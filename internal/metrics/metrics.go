// Package metrics exposes Prometheus instrumentation for the asset
// lifecycle: uploads, deletions, quota denials and reconciliation runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's Prometheus collectors. A nil *Metrics is
// valid and records nothing, so instrumentation can be switched off without
// branching at every call site.
type Metrics struct {
	uploadsTotal         *prometheus.CounterVec
	uploadedBytesTotal   *prometheus.CounterVec
	deletesTotal         *prometheus.CounterVec
	quotaDenialsTotal    prometheus.Counter
	reconciliationsTotal prometheus.Counter
}

// New registers the application collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		uploadsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "daylytics_asset_uploads_total",
				Help: "Total number of asset uploads by category",
			},
			[]string{"category"},
		),
		uploadedBytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "daylytics_asset_uploaded_bytes_total",
				Help: "Total bytes uploaded by category",
			},
			[]string{"category"},
		),
		deletesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "daylytics_asset_deletes_total",
				Help: "Total number of asset deletions by category",
			},
			[]string{"category"},
		),
		quotaDenialsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "daylytics_quota_denials_total",
				Help: "Total number of uploads rejected by the storage quota",
			},
		),
		reconciliationsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "daylytics_storage_reconciliations_total",
				Help: "Total number of storage usage recomputations",
			},
		),
	}
}

// RecordUpload counts a successful upload of size bytes.
func (m *Metrics) RecordUpload(category string, size int64) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(category).Inc()
	m.uploadedBytesTotal.WithLabelValues(category).Add(float64(size))
}

// RecordDelete counts a completed asset deletion.
func (m *Metrics) RecordDelete(category string) {
	if m == nil {
		return
	}
	m.deletesTotal.WithLabelValues(category).Inc()
}

// RecordQuotaDenial counts an upload rejected by the quota check.
func (m *Metrics) RecordQuotaDenial() {
	if m == nil {
		return
	}
	m.quotaDenialsTotal.Inc()
}

// RecordReconciliation counts a storage usage recomputation.
func (m *Metrics) RecordReconciliation() {
	if m == nil {
		return
	}
	m.reconciliationsTotal.Inc()
}
