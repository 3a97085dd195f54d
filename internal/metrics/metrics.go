// Package metrics exposes Prometheus metrics for exports, asset fetches and
// the HTTP API.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	pdfzone "github.com/prajwal-pl/dnd-pdf-zone"
	"github.com/prajwal-pl/dnd-pdf-zone/asset"
)

// Metrics holds all Prometheus metrics for pdfzone
type Metrics struct {
	ExportsTotal          *prometheus.CounterVec
	ExportDurationSeconds *prometheus.HistogramVec
	ExportWarningsTotal   *prometheus.CounterVec
	ExportBytes           prometheus.Histogram

	AssetFetchesTotal         *prometheus.CounterVec
	AssetFetchDurationSeconds prometheus.Histogram

	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered on a
// private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ExportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdfzone_exports_total",
				Help: "Total number of exports by mode and result",
			},
			[]string{"mode", "result"},
		),
		ExportDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pdfzone_export_duration_seconds",
				Help:    "Export duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		ExportWarningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdfzone_export_warnings_total",
				Help: "Total number of fallbacks taken during exports",
			},
			[]string{"kind"},
		),
		ExportBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pdfzone_export_bytes",
				Help:    "Size of exported documents in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),
		AssetFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdfzone_asset_fetches_total",
				Help: "Total number of remote asset fetches by result",
			},
			[]string{"result"},
		),
		AssetFetchDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pdfzone_asset_fetch_duration_seconds",
				Help:    "Remote asset fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdfzone_http_requests_total",
				Help: "Total number of HTTP API requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pdfzone_http_request_duration_seconds",
				Help:    "HTTP API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.ExportsTotal,
		m.ExportDurationSeconds,
		m.ExportWarningsTotal,
		m.ExportBytes,
		m.AssetFetchesTotal,
		m.AssetFetchDurationSeconds,
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveExport records one export. err is the error returned by the
// export, if any.
func (m *Metrics) ObserveExport(mode string, d time.Duration, size int, warnings pdfzone.Warnings, err error) {
	m.ExportsTotal.WithLabelValues(mode, exportResult(err)).Inc()
	m.ExportDurationSeconds.WithLabelValues(mode).Observe(d.Seconds())
	if err != nil {
		return
	}
	m.ExportBytes.Observe(float64(size))
	for _, w := range warnings {
		m.ExportWarningsTotal.WithLabelValues(string(w.Kind)).Inc()
	}
}

func exportResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, pdfzone.ErrValidation):
		return "invalid"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// InstrumentFetcher wraps f so every fetch is counted and timed. A nil
// fetcher stays nil.
func (m *Metrics) InstrumentFetcher(f asset.Fetcher) asset.Fetcher {
	if f == nil {
		return nil
	}
	return asset.FetcherFunc(func(ctx context.Context, ref string) ([]byte, error) {
		start := time.Now()
		data, err := f.Fetch(ctx, ref)
		m.AssetFetchDurationSeconds.Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
		}
		m.AssetFetchesTotal.WithLabelValues(result).Inc()
		return data, err
	})
}
