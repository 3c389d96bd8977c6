package monitor

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nexuscore/nexus/internal/apperr"
)

const (
	metricNamespace = "nexus"
	metricSubsystem = "monitor"
)

// MetricRegistry lets managers and plugins register gauges, counters,
// histograms, and summaries by name with optional label sets; registering
// the same name twice fails rather than silently reusing the existing
// collector. Every registration is mirrored onto a Prometheus registry so
// monitoring.prometheus.enabled exposes the same series over /metrics.
type MetricRegistry struct {
	reg *prometheus.Registry

	mu      sync.Mutex
	entries map[string]registryEntry
}

type registryEntry struct {
	kind   MetricKind
	labels []string
	vec    prometheus.Collector
}

// NewMetricRegistry builds a registry backed by reg. A nil reg keeps
// registrations process-local with no Prometheus exposition, for
// deployments (and tests) that disable the scrape endpoint.
func NewMetricRegistry(reg *prometheus.Registry) *MetricRegistry {
	return &MetricRegistry{reg: reg, entries: make(map[string]registryEntry)}
}

// RegisterGauge registers a new gauge. Returns a validation error if name
// is already registered under any kind.
func (r *MetricRegistry) RegisterGauge(name string, labelNames []string) (*prometheus.GaugeVec, error) {
	sanitized := sanitizeMetricName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkFreeLocked(name, sanitized); err != nil {
		return nil, err
	}
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricNamespace,
		Subsystem: metricSubsystem,
		Name:      sanitized,
		Help:      "Registered gauge: " + name,
	}, labelNames)
	if err := r.registerLocked(sanitized, vec); err != nil {
		return nil, err
	}
	r.entries[sanitized] = registryEntry{kind: MetricGauge, labels: labelNames, vec: vec}
	return vec, nil
}

// RegisterCounter registers a new counter.
func (r *MetricRegistry) RegisterCounter(name string, labelNames []string) (*prometheus.CounterVec, error) {
	sanitized := sanitizeMetricName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkFreeLocked(name, sanitized); err != nil {
		return nil, err
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricNamespace,
		Subsystem: metricSubsystem,
		Name:      sanitized,
		Help:      "Registered counter: " + name,
	}, labelNames)
	if err := r.registerLocked(sanitized, vec); err != nil {
		return nil, err
	}
	r.entries[sanitized] = registryEntry{kind: MetricCounter, labels: labelNames, vec: vec}
	return vec, nil
}

// RegisterHistogram registers a new histogram.
func (r *MetricRegistry) RegisterHistogram(name string, labelNames []string, buckets []float64) (*prometheus.HistogramVec, error) {
	sanitized := sanitizeMetricName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkFreeLocked(name, sanitized); err != nil {
		return nil, err
	}
	if len(buckets) == 0 {
		buckets = prometheus.ExponentialBuckets(0.001, 2, 15)
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricNamespace,
		Subsystem: metricSubsystem,
		Name:      sanitized,
		Help:      "Registered histogram: " + name,
		Buckets:   buckets,
	}, labelNames)
	if err := r.registerLocked(sanitized, vec); err != nil {
		return nil, err
	}
	r.entries[sanitized] = registryEntry{kind: MetricHistogram, labels: labelNames, vec: vec}
	return vec, nil
}

// RegisterSummary registers a new summary.
func (r *MetricRegistry) RegisterSummary(name string, labelNames []string) (*prometheus.SummaryVec, error) {
	sanitized := sanitizeMetricName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkFreeLocked(name, sanitized); err != nil {
		return nil, err
	}
	vec := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace:  metricNamespace,
		Subsystem:  metricSubsystem,
		Name:       sanitized,
		Help:       "Registered summary: " + name,
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, labelNames)
	if err := r.registerLocked(sanitized, vec); err != nil {
		return nil, err
	}
	r.entries[sanitized] = registryEntry{kind: MetricSummary, labels: labelNames, vec: vec}
	return vec, nil
}

func (r *MetricRegistry) checkFreeLocked(name, sanitized string) error {
	if _, exists := r.entries[sanitized]; exists {
		return apperr.Newf(apperr.KindValidation, "metric %q is already registered", name)
	}
	return nil
}

func (r *MetricRegistry) registerLocked(sanitized string, c prometheus.Collector) error {
	if r.reg == nil {
		return nil
	}
	if err := r.reg.Register(c); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, fmt.Sprintf("registering metric %q", sanitized))
	}
	return nil
}

// Names returns every registered metric name, sorted.
func (r *MetricRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sanitizeMetricName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "unnamed_metric"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		out = "unnamed_metric"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "m_" + out
	}
	return out
}
