package observability

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ideabox"

// PrometheusMetrics implements ports.Metrics. Collectors are registered on
// first use; a name must always be used with the same label keys.
type PrometheusMetrics struct {
	factory promauto.Factory

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	return &PrometheusMetrics{
		factory:    promauto.With(registerer),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func (m *PrometheusMetrics) IncCounter(name string, labels map[string]string) {
	m.mu.Lock()
	vec, ok := m.counters[name]
	if !ok {
		vec = m.factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      "Count of " + name,
		}, labelKeys(labels))
		m.counters[name] = vec
	}
	m.mu.Unlock()

	vec.With(labels).Inc()
}

func (m *PrometheusMetrics) ObserveDuration(name string, d time.Duration, labels map[string]string) {
	m.mu.Lock()
	vec, ok := m.histograms[name]
	if !ok {
		vec = m.factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      "Duration of " + name,
			Buckets:   prometheus.DefBuckets,
		}, labelKeys(labels))
		m.histograms[name] = vec
	}
	m.mu.Unlock()

	vec.With(labels).Observe(d.Seconds())
}

func labelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
