// Package prommetrics exports corelgo run metrics to Prometheus.
//
//	c := prommetrics.New("corelgo")
//	prometheus.MustRegister(c)
//	res, err := corelgo.Learn(ctx, ds, corelgo.WithMetricsCollector(c))
package prommetrics

import (
	"time"

	"github.com/hupe1980/corelgo"
	"github.com/prometheus/client_golang/prometheus"
)

var _ corelgo.MetricsCollector = (*Collector)(nil)
var _ prometheus.Collector = (*Collector)(nil)

// Collector implements corelgo.MetricsCollector and prometheus.Collector.
type Collector struct {
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	incumbents   prometheus.Counter
	objective    prometheus.Gauge
	ruleListLen  prometheus.Gauge
	iterations   prometheus.Gauge
	frontier     prometheus.Gauge
	liveNodes    prometheus.Gauge
	cacheEntries prometheus.Gauge
	lowerBound   prometheus.Gauge
}

// New creates a collector whose metric names start with namespace.
func New(namespace string) *Collector {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}
	return &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed Learn calls by termination reason.",
		}, []string{"reason"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of Learn calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		incumbents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incumbent_updates_total",
			Help:      "Improvements of the best rule list.",
		}),
		objective:    gauge("incumbent_objective", "Objective of the best rule list."),
		ruleListLen:  gauge("incumbent_length", "Number of rules in the best rule list."),
		iterations:   gauge("iterations", "Iterations of the current run."),
		frontier:     gauge("frontier_size", "Entries in the search frontier."),
		liveNodes:    gauge("live_nodes", "Live nodes in the search tree."),
		cacheEntries: gauge("cache_entries", "Entries in the permutation cache."),
		lowerBound:   gauge("lower_bound", "Lower bound of the last selected node."),
	}
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.runs, c.runDuration, c.incumbents, c.objective, c.ruleListLen,
		c.iterations, c.frontier, c.liveNodes, c.cacheEntries, c.lowerBound,
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.collectors() {
		m.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.collectors() {
		m.Collect(ch)
	}
}

// RecordRun implements corelgo.MetricsCollector. Failed runs are counted
// under the "error" reason.
func (c *Collector) RecordRun(reason corelgo.Reason, d time.Duration, err error) {
	label := reason.String()
	if err != nil {
		label = "error"
	}
	c.runs.WithLabelValues(label).Inc()
	c.runDuration.Observe(d.Seconds())
}

// RecordIncumbent implements corelgo.MetricsCollector.
func (c *Collector) RecordIncumbent(objective float64, length int) {
	c.incumbents.Inc()
	c.objective.Set(objective)
	c.ruleListLen.Set(float64(length))
}

// RecordProgress implements corelgo.MetricsCollector.
func (c *Collector) RecordProgress(st corelgo.Stats) {
	c.iterations.Set(float64(st.Iterations))
	c.frontier.Set(float64(st.FrontierSize))
	c.liveNodes.Set(float64(st.NodesLive))
	c.cacheEntries.Set(float64(st.CacheEntries))
	c.lowerBound.Set(st.LowerBound)
}
