package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements Metrics backed by a prometheus registry.
// Collectors are created lazily on first use and cached per metric name.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusMetrics creates a metrics collector registered on its own registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Registry returns the underlying prometheus registry for exposition.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PrometheusMetrics) Counter(name string, value int64, tags ...Tag) {
	labels, values := splitTags(tags)

	m.mu.Lock()
	vec, ok := m.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: sanitizeMetricName(name),
		}, labels)
		m.registry.MustRegister(vec)
		m.counters[name] = vec
	}
	m.mu.Unlock()

	vec.WithLabelValues(values...).Add(float64(value))
}

func (m *PrometheusMetrics) Gauge(name string, value float64, tags ...Tag) {
	labels, values := splitTags(tags)

	m.mu.Lock()
	vec, ok := m.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: sanitizeMetricName(name),
		}, labels)
		m.registry.MustRegister(vec)
		m.gauges[name] = vec
	}
	m.mu.Unlock()

	vec.WithLabelValues(values...).Set(value)
}

func (m *PrometheusMetrics) Histogram(name string, value float64, tags ...Tag) {
	labels, values := splitTags(tags)

	m.mu.Lock()
	vec, ok := m.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    sanitizeMetricName(name),
			Buckets: prometheus.DefBuckets,
		}, labels)
		m.registry.MustRegister(vec)
		m.histograms[name] = vec
	}
	m.mu.Unlock()

	vec.WithLabelValues(values...).Observe(value)
}

func (m *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.Histogram(name, duration.Seconds(), tags...)
}

func splitTags(tags []Tag) ([]string, []string) {
	labels := make([]string, 0, len(tags))
	values := make([]string, 0, len(tags))
	for _, tag := range tags {
		labels = append(labels, tag.Key)
		values = append(values, tag.Value)
	}
	return labels, values
}

func sanitizeMetricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
