package metrics

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"shellac/src/catalog"
	"shellac/src/features/scanning"
)

// Service exports scan and catalog metrics through a prometheus
// registry. It implements scanning.Recorder so the scanner stays
// unaware of the metrics backend.
type Service struct {
	store    catalog.Store
	registry *prometheus.Registry

	scansTotal    *prometheus.CounterVec
	scanDuration  prometheus.Histogram
	scanErrors    prometheus.Counter
	entitiesAdded prometheus.Counter
	entitiesGone  prometheus.Counter
	scanRunning   prometheus.Gauge
	catalogSize   *prometheus.GaugeVec
}

// NewService creates the metrics service and registers its collectors.
func NewService(store catalog.Store) *Service {
	s := &Service{
		store:    store,
		registry: prometheus.NewRegistry(),
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shellac_scans_total",
			Help: "Completed library scans by result.",
		}, []string{"result"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shellac_scan_duration_seconds",
			Help:    "Wall clock duration of library scans.",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		}),
		scanErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shellac_scan_file_errors_total",
			Help: "Files skipped during scans because they could not be read.",
		}),
		entitiesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shellac_entities_added_total",
			Help: "Catalog entities added by reconciliation.",
		}),
		entitiesGone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shellac_entities_removed_total",
			Help: "Catalog entities removed by reconciliation.",
		}),
		scanRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shellac_scan_running",
			Help: "Whether a library scan is currently running.",
		}),
		catalogSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "shellac_catalog_entities",
			Help: "Current number of persisted catalog entities by kind.",
		}, []string{"kind"}),
	}
	s.registry.MustRegister(s.scansTotal, s.scanDuration, s.scanErrors,
		s.entitiesAdded, s.entitiesGone, s.scanRunning, s.catalogSize)
	return s
}

var _ scanning.Recorder = (*Service)(nil)

// Registry exposes the registry for the HTTP handler.
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

// ScanStarted marks a scan as in flight.
func (s *Service) ScanStarted() {
	s.scanRunning.Set(1)
}

// ScanFinished records the outcome of a scan and refreshes the catalog
// size gauges.
func (s *Service) ScanFinished(summary *scanning.Summary, failed bool) {
	s.scanRunning.Set(0)

	result := "success"
	if failed {
		result = "failed"
	}
	s.scansTotal.WithLabelValues(result).Inc()
	s.scanDuration.Observe(summary.Finished.Sub(summary.Started).Seconds())
	s.scanErrors.Add(float64(summary.Errors))
	s.entitiesAdded.Add(float64(summary.Added))
	s.entitiesGone.Add(float64(summary.Removed))

	counts, err := s.store.Counts(context.Background())
	if err != nil {
		slog.Error("failed to refresh catalog size metrics", "error", err)
		return
	}
	s.catalogSize.WithLabelValues("folders").Set(float64(counts.Folders))
	s.catalogSize.WithLabelValues("songs").Set(float64(counts.Songs))
	s.catalogSize.WithLabelValues("albums").Set(float64(counts.Albums))
	s.catalogSize.WithLabelValues("artists").Set(float64(counts.Artists))
	s.catalogSize.WithLabelValues("cover_art").Set(float64(counts.CoverArt))
}
