// Package monitoring records import runs as prometheus metrics and as a
// YAML run report.
package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"

	"github.com/sells-group/admin-areas/internal/importer"
)

const namespace = "admin_areas"

// Metrics holds the import collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	scanned   *prometheus.CounterVec
	kept      *prometheus.GaugeVec
	duration  *prometheus.HistogramVec
	surviving prometheus.Gauge

	mu   sync.Mutex
	seen map[importer.Phase]int64
}

var _ importer.Observer = (*Metrics)(nil)

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		scanned: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_scanned_total",
			Help:      "OSM objects decoded, by import phase.",
		}, []string{"phase"}),
		kept: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "objects_kept",
			Help:      "Table rows produced by the last run of each import phase.",
		}, []string{"phase"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Wall time of each import phase.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
		}, []string{"phase"}),
		surviving: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "complete_areas",
			Help:      "Areas that passed the completeness filter.",
		}),
		seen: make(map[importer.Phase]int64),
	}
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) PassStarted(p importer.Phase) {
	m.mu.Lock()
	m.seen[p] = 0
	m.mu.Unlock()
}

// ObjectsScanned receives running totals; the counter advances by the delta.
func (m *Metrics) ObjectsScanned(p importer.Phase, total int64) {
	m.mu.Lock()
	delta := total - m.seen[p]
	m.seen[p] = total
	m.mu.Unlock()

	if delta > 0 {
		m.scanned.WithLabelValues(string(p)).Add(float64(delta))
	}
}

func (m *Metrics) PassFinished(p importer.Phase, kept int, elapsed time.Duration) {
	m.kept.WithLabelValues(string(p)).Set(float64(kept))
	m.duration.WithLabelValues(string(p)).Observe(elapsed.Seconds())
}

// SetSurviving records the completeness filter result.
func (m *Metrics) SetSurviving(n int) {
	m.surviving.Set(float64(n))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return eris.Wrapf(err, "monitoring: write metrics %s", path)
	}
	return nil
}
