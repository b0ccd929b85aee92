package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements ports.MetricsSink on a private registry so tests
// can construct as many sinks as they like without collisions.
type Prometheus struct {
	registry *prometheus.Registry

	scans    prometheus.Counter
	failures *prometheus.CounterVec
	hits     prometheus.Counter
	duration prometheus.Histogram
}

func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Prometheus{
		registry: reg,
		scans: factory.NewCounter(prometheus.CounterOpts{
			Name: "labelscan_scans_total",
			Help: "Scan requests accepted for processing.",
		}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "labelscan_scan_failures_total",
			Help: "Scans that failed before matching, by cause.",
		}, []string{"reason"}),
		hits: factory.NewCounter(prometheus.CounterOpts{
			Name: "labelscan_allergen_hits_total",
			Help: "Allergen tokens found across all scans.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "labelscan_scan_duration_seconds",
			Help:    "End-to-end scan duration including the OCR call.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
}

func (p *Prometheus) ScanStarted() { p.scans.Inc() }

func (p *Prometheus) ScanFailed(reason string) { p.failures.WithLabelValues(reason).Inc() }

func (p *Prometheus) AllergensMatched(n int) { p.hits.Add(float64(n)) }

func (p *Prometheus) ScanDuration(d time.Duration) { p.duration.Observe(d.Seconds()) }

// Handler exposes the registry for the scrape listener.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
