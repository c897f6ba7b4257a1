package metrics

import (
	"fmt"

	"github.com/nao1215/modscan/internal/crawler"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "modscan"

// Collector counts crawl events and records the outcome of the last crawl.
type Collector struct {
	registry *prometheus.Registry

	events      *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	lastUpdate  prometheus.Gauge
	updated     prometheus.Gauge
	interrupted prometheus.Gauge
	duration    prometheus.Gauge
	finished    prometheus.Gauge
	records     prometheus.Gauge
}

// New creates a Collector with a fresh registry. Every event kind starts
// at zero so absent series are distinguishable from a missing textfile.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "events_total",
			Help:      "Crawl events by kind.",
		}, []string{"kind"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "repositories_skipped_total",
			Help:      "Repositories skipped by reason.",
		}, []string{"reason"}),
		lastUpdate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "last_record_update_timestamp_seconds",
			Help:      "Unix time of the most recent record update.",
		}),
		updated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "records_updated",
			Help:      "Records created or replaced by the last crawl.",
		}),
		interrupted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "interrupted",
			Help:      "1 if the last crawl stopped early, 0 otherwise.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of the last crawl.",
		}),
		finished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "last_finished_timestamp_seconds",
			Help:      "Unix time the last crawl finished.",
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "records",
			Help:      "Records in the dataset after the last crawl.",
		}),
	}

	c.registry.MustRegister(
		c.events, c.skipped, c.lastUpdate, c.updated,
		c.interrupted, c.duration, c.finished, c.records,
	)
	for _, kind := range crawler.Kinds() {
		c.events.WithLabelValues(kind.String())
	}
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe implements crawler.Observer.
func (c *Collector) Observe(e crawler.Event) {
	c.events.WithLabelValues(e.Kind.String()).Inc()
	switch e.Kind {
	case crawler.RepositorySkipped:
		c.skipped.WithLabelValues(e.Reason).Inc()
	case crawler.RecordUpdated:
		c.lastUpdate.SetToCurrentTime()
	}
}

// ObserveResult records the outcome of a finished crawl and the size of
// the dataset it left behind.
func (c *Collector) ObserveResult(res *crawler.Result, records int) {
	if res == nil {
		return
	}
	c.updated.Set(float64(res.Updated))
	if res.Interrupted {
		c.interrupted.Set(1)
	} else {
		c.interrupted.Set(0)
	}
	c.duration.Set(res.FinishedAt.Sub(res.StartedAt).Seconds())
	if !res.FinishedAt.IsZero() {
		c.finished.Set(float64(res.FinishedAt.UnixNano()) / 1e9)
	}
	c.records.Set(float64(records))
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
