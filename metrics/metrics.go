// Package metrics records what a wizard run did. The CLI can dump the
// registry to a node_exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const Namespace = "quorum_wizard"

// Download outcomes.
const (
	DownloadCached  = "cached"
	DownloadFetched = "fetched"
	DownloadFailed  = "failed"
	resultSuccess   = "success"
	resultFailure   = "failure"
)

type Metricer interface {
	RecordBuild(consensus, deployment string, success bool, duration time.Duration)
	RecordNodes(count int)
	RecordDownload(tool, outcome string)
}

type Metrics struct {
	registry *prometheus.Registry

	BuildsVec        *prometheus.CounterVec
	BuildDurationVec *prometheus.HistogramVec
	Nodes            prometheus.Gauge
	DownloadsVec     *prometheus.CounterVec
}

var _ Metricer = (*Metrics)(nil)

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BuildsVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "builds_total",
			Help:      "Number of network builds by consensus, deployment and result",
		}, []string{"consensus", "deployment", "result"}),
		BuildDurationVec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of network builds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"result"}),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "nodes",
			Help:      "Number of nodes in the last materialized network",
		}),
		DownloadsVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "downloads_total",
			Help:      "Binary provisioning outcomes by tool",
		}, []string{"tool", "outcome"}),
	}
	m.registry.MustRegister(m.BuildsVec, m.BuildDurationVec, m.Nodes, m.DownloadsVec)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordBuild(consensus, deployment string, success bool, duration time.Duration) {
	result := resultFailure
	if success {
		result = resultSuccess
	}
	m.BuildsVec.WithLabelValues(consensus, deployment, result).Inc()
	m.BuildDurationVec.WithLabelValues(result).Observe(duration.Seconds())
}

func (m *Metrics) RecordNodes(count int) {
	m.Nodes.Set(float64(count))
}

func (m *Metrics) RecordDownload(tool, outcome string) {
	m.DownloadsVec.WithLabelValues(tool, outcome).Inc()
}

// WriteTextfile writes the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

type noopMetrics struct{}

// NoopMetrics discards everything.
var NoopMetrics Metricer = noopMetrics{}

func (noopMetrics) RecordBuild(string, string, bool, time.Duration) {}
func (noopMetrics) RecordNodes(int) {}
func (noopMetrics) RecordDownload(string, string) {}
