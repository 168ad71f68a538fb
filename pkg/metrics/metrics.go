// Package metrics defines the Prometheus metric collectors for the compiler
// and exposes an HTTP handler for scraping during long builds.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for a build.
type Metrics struct {
	DocumentsRead    prometheus.Counter
	TermPairsRead    prometheus.Counter
	TermsInterned    prometheus.Counter
	PopularTerms     prometheus.Gauge
	NormalTerms      prometheus.Gauge
	PackagesWritten  *prometheus.CounterVec
	ArtifactBytes    *prometheus.GaugeVec
	LookupBytes      *prometheus.GaugeVec
	StageDuration    *prometheus.HistogramVec
	BuildsTotal      *prometheus.CounterVec
	PublishesTotal   *prometheus.CounterVec
}

// New creates and registers all compiler metrics.
func New() *Metrics {
	m := &Metrics{
		DocumentsRead: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "build_documents_read_total",
				Help: "Documents consumed from the document-term stream.",
			},
		),
		TermPairsRead: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "build_term_pairs_read_total",
				Help: "(document, term) pairs consumed from the input stream.",
			},
		),
		TermsInterned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "build_terms_interned_total",
				Help: "Distinct terms interned into the dictionary.",
			},
		),
		PopularTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "build_popular_terms",
				Help: "Terms admitted to the direct-lookup popular partition.",
			},
		),
		NormalTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "build_normal_terms",
				Help: "Terms placed in the BST-lookup normal partition.",
			},
		),
		PackagesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "build_packages_written_total",
				Help: "Packages emitted per artifact set.",
			},
			[]string{"artifact"},
		),
		ArtifactBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "build_artifact_bytes",
				Help: "Total package bytes per artifact set.",
			},
			[]string{"artifact"},
		),
		LookupBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "build_lookup_bytes",
				Help: "Serialized lookup table size per artifact set.",
			},
			[]string{"artifact"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "build_stage_duration_seconds",
				Help:    "Wall time per pipeline stage.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
			[]string{"stage"},
		),
		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "builds_total",
				Help: "Completed builds by status (success, error).",
			},
			[]string{"status"},
		),
		PublishesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "build_publishes_total",
				Help: "Artifact publish operations by sink and status.",
			},
			[]string{"sink", "status"},
		),
	}

	prometheus.MustRegister(
		m.DocumentsRead,
		m.TermPairsRead,
		m.TermsInterned,
		m.PopularTerms,
		m.NormalTerms,
		m.PackagesWritten,
		m.ArtifactBytes,
		m.LookupBytes,
		m.StageDuration,
		m.BuildsTotal,
		m.PublishesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
