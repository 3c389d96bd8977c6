package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/nexuscore/nexus/internal/concurrency"
	"github.com/nexuscore/nexus/internal/eventbus"
)

// Config mirrors internal/config.MonitoringSchema plus the one field
// (root volume path) that has no config-tree equivalent.
type Config struct {
	Enabled                bool
	MetricsIntervalSeconds int
	Thresholds             Thresholds
	DiskRootPath           string
}

const uptimeIntervalSeconds = 60

// Monitor runs the two periodic sampling loops on a shared robfig/cron
// scheduler, feeds readings through the alert state machine, and exposes
// the metric registry and diagnostic report.
type Monitor struct {
	cfg       Config
	facility  *concurrency.Facility
	bus       *eventbus.Bus
	log       *logrus.Logger
	metrics   *MetricRegistry
	alerts    *AlertTracker
	scheduler *cron.Cron

	mu       sync.RWMutex
	last     Snapshot
	startOf  time.Time
	entryIDs []cron.EntryID
}

// New builds a Monitor. facility and bus may be nil in tests that only
// exercise sampling/alerting directly.
func New(cfg Config, facility *concurrency.Facility, bus *eventbus.Bus, metricsReg *MetricRegistry, log *logrus.Logger) *Monitor {
	if cfg.MetricsIntervalSeconds <= 0 {
		cfg.MetricsIntervalSeconds = 10
	}
	if cfg.DiskRootPath == "" {
		cfg.DiskRootPath = "/"
	}
	if metricsReg == nil {
		metricsReg = NewMetricRegistry(nil)
	}
	return &Monitor{
		cfg:       cfg,
		facility:  facility,
		bus:       bus,
		log:       log,
		metrics:   metricsReg,
		alerts:    NewAlertTracker(),
		scheduler: cron.New(),
		startOf:   time.Now(),
	}
}

// Start schedules the metrics and uptime loops via @every cron specs and
// starts the scheduler. Idempotent: calling it twice is a no-op.
func (m *Monitor) Start() {
	if !m.cfg.Enabled || len(m.entryIDs) > 0 {
		return
	}

	metricsSpec := fmt.Sprintf("@every %ds", m.cfg.MetricsIntervalSeconds)
	if id, err := m.scheduler.AddFunc(metricsSpec, m.runMetricsCycle); err == nil {
		m.entryIDs = append(m.entryIDs, id)
	} else if m.log != nil {
		m.log.WithError(err).Error("monitor: failed to schedule metrics loop")
	}

	uptimeSpec := fmt.Sprintf("@every %ds", uptimeIntervalSeconds)
	if id, err := m.scheduler.AddFunc(uptimeSpec, m.runUptimeCycle); err == nil {
		m.entryIDs = append(m.entryIDs, id)
	} else if m.log != nil {
		m.log.WithError(err).Error("monitor: failed to schedule uptime loop")
	}

	m.scheduler.Start()
}

// Stop cancels both loops cleanly; in-flight samples are allowed to finish.
func (m *Monitor) Stop() {
	ctx := m.scheduler.Stop()
	<-ctx.Done()
	m.entryIDs = nil
}

func (m *Monitor) runMetricsCycle() {
	run := func(ctx context.Context) (any, error) {
		return sample(ctx, m.cfg.DiskRootPath)
	}

	result, err := m.submit(run)
	if err != nil {
		if m.log != nil {
			m.log.WithError(err).Warn("monitor: metrics sample failed, backing off")
		}
		return
	}
	snap := result.(Snapshot)

	m.mu.Lock()
	m.last.CPUPercent = snap.CPUPercent
	m.last.MemoryPercent = snap.MemoryPercent
	m.last.DiskPercent = snap.DiskPercent
	m.last.SampledAt = snap.SampledAt
	m.mu.Unlock()

	m.evaluate("cpu_percent", snap.CPUPercent, m.cfg.Thresholds.CPUPercent)
	m.evaluate("memory_percent", snap.MemoryPercent, m.cfg.Thresholds.MemoryPercent)
	m.evaluate("disk_percent", snap.DiskPercent, m.cfg.Thresholds.DiskPercent)
}

func (m *Monitor) runUptimeCycle() {
	run := func(ctx context.Context) (any, error) {
		return uptimeSeconds(ctx)
	}
	result, err := m.submit(run)
	if err != nil {
		if m.log != nil {
			m.log.WithError(err).Warn("monitor: uptime sample failed, backing off")
		}
		return
	}
	m.mu.Lock()
	m.last.UptimeSeconds = result.(float64)
	m.mu.Unlock()
}

// submit runs fn on the concurrency facility's I/O pool if one is wired,
// falling back to an inline call (used by tests that construct a Monitor
// without a facility).
func (m *Monitor) submit(fn concurrency.Func) (any, error) {
	if m.facility == nil {
		return fn(context.Background())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	handle, err := m.facility.RunIO(ctx, fn)
	if err != nil {
		return nil, err
	}
	return handle.Await(ctx)
}

func (m *Monitor) evaluate(metric string, value, threshold float64) {
	if threshold <= 0 {
		return
	}
	active, resolved := m.alerts.Evaluate(metric, "resource_monitor", value, threshold)
	if active != nil && m.bus != nil {
		_, _ = m.bus.Publish("monitoring/alert", "resource_monitor", map[string]any{"alert": active})
	}
	if resolved != nil && m.bus != nil {
		_, _ = m.bus.Publish("monitoring/alert_resolved", "resource_monitor", map[string]any{"alert": resolved})
	}
}

// Snapshot returns the most recent sampled reading.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Metrics returns the metric registry managers and plugins can register
// custom gauges/counters/histograms/summaries against.
func (m *Monitor) Metrics() *MetricRegistry { return m.metrics }

// Alerts returns the alert tracker.
func (m *Monitor) Alerts() *AlertTracker { return m.alerts }

// GenerateDiagnosticReport snapshots current metric values, active alerts,
// and resolved-alert history into one structured payload, surfaced at GET
// /monitoring/diagnostics.
func (m *Monitor) GenerateDiagnosticReport() DiagnosticReport {
	active := m.Alerts().ActiveAlerts()
	asValues := make([]Alert, len(active))
	copy(asValues, active)

	return DiagnosticReport{
		GeneratedAt:    time.Now(),
		Snapshot:       m.Snapshot(),
		ActiveAlerts:   asValues,
		ResolvedAlerts: m.Alerts().ResolvedHistory(),
		Metrics:        map[string]any{"registered": m.metrics.Names()},
	}
}
