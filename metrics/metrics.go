// Package metrics exports the coverage figures of a run in the Prometheus
// text format, for scraping through the node exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gematik/app-AfoReporter/aggregate"
	"github.com/gematik/app-AfoReporter/evidence"
)

const namespace = "aforeport"

// Collector holds the gauges of one run.
type Collector struct {
	registry *prometheus.Registry

	requirements *prometheus.GaugeVec
	deleted      prometheus.Gauge
	referenced   prometheus.Gauge
	testResults  prometheus.Gauge
	unreferenced prometheus.Gauge
	orphans      prometheus.Gauge
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requirements: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requirements",
			Help:      "Requirements by aggregated status.",
		}, []string{"status"}),
		deleted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deleted_requirements",
			Help:      "Requirements marked deleted in the feed.",
		}),
		referenced: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "referenced_results",
			Help:      "Test outcomes resolved through a requirement link.",
		}),
		testResults: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "test_results",
			Help:      "Test outcomes collected from all result roots.",
		}),
		unreferenced: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unreferenced_tests",
			Help:      "Test outcomes no requirement links to.",
		}),
		orphans: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orphaned_links",
			Help:      "Links naming a requirement absent from the feed.",
		}),
	}
	c.registry.MustRegister(c.requirements, c.deleted, c.referenced, c.testResults, c.unreferenced, c.orphans)
	return c
}

// Registry returns the registry the gauges are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe sets all gauges from s. Unknown counts exclude deleted
// requirements, which are reported on their own gauge.
func (c *Collector) Observe(s *aggregate.Summary) {
	for _, st := range evidence.Statuses {
		n := s.Count(st)
		if st == evidence.StatusUnknown {
			n = s.RealUnknown()
		}
		c.requirements.WithLabelValues(st.Lower()).Set(float64(n))
	}
	c.deleted.Set(float64(s.DeletedUnknown))
	c.referenced.Set(float64(s.Referenced))
	c.testResults.Set(float64(s.TestResults))
	c.unreferenced.Set(float64(s.Unreferenced))
	c.orphans.Set(float64(s.Orphans))
}

// WriteTextfile writes the gauges to path atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
