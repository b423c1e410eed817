package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActivePeers       prometheus.Gauge
	PeerEvents        *prometheus.CounterVec
	RelayMessages     *prometheus.CounterVec
	GeneratedWords    *prometheus.CounterVec
	GenerationErrors  *prometheus.CounterVec
	GenerationLatency *prometheus.HistogramVec
	CorpusKeys        prometheus.Gauge
	CorpusEdges       prometheus.Gauge

	window *latencyWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActivePeers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_peers",
			Help:      "Number of peers connected to the relay.",
		}),
		PeerEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "peer_events_total",
			Help:      "Relay peer events by type.",
		}, []string{"event"}),
		RelayMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_messages_total",
			Help:      "Relay messages by direction and type.",
		}, []string{"direction", "type"}),
		GeneratedWords: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generated_words_total",
			Help:      "Words requested from the chain walker by operation.",
		}, []string{"operation"}),
		GenerationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_errors_total",
			Help:      "Generation failures by operation and code.",
		}, []string{"operation", "code"}),
		GenerationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_latency_ms",
			Help:      "Generation latency in milliseconds by operation.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
		}, []string{"operation"}),
		CorpusKeys: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_keys",
			Help:      "Predecessor tokens in the active corpus.",
		}),
		CorpusEdges: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_edges",
			Help:      "Predecessor/successor pairs in the active corpus.",
		}),
		window: newLatencyWindow(256),
	}
}

// ObserveGeneration records one finished generation of words words.
func (m *Metrics) ObserveGeneration(operation string, words int, d time.Duration) {
	ms := float64(d.Microseconds()) / 1000
	m.GeneratedWords.WithLabelValues(operation).Add(float64(words))
	m.GenerationLatency.WithLabelValues(operation).Observe(ms)
	m.window.Observe(operation, d)
}

// ObserveGenerationError records a failed generation.
func (m *Metrics) ObserveGenerationError(operation, code string) {
	m.GenerationErrors.WithLabelValues(operation, code).Inc()
	m.window.Fail(operation)
}

// SetCorpus publishes the shape of the active corpus.
func (m *Metrics) SetCorpus(keys, edges int) {
	m.CorpusKeys.Set(float64(keys))
	m.CorpusEdges.Set(float64(edges))
}

// SnapshotLatency returns recent generation latency percentiles and failure
// counts per operation.
func (m *Metrics) SnapshotLatency() LatencySnapshot {
	return m.window.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
