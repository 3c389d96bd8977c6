// Package monitor implements the Resource Monitor (C5): periodic CPU/
// memory/disk/uptime sampling, a threshold-based alert state machine, and
// a name+label metric registry mirrored onto Prometheus collectors.
package monitor

import (
	"time"

	"github.com/google/uuid"
)

// AlertLevel is the severity tier of an Alert.
type AlertLevel string

const (
	AlertLevelInfo     AlertLevel = "info"
	AlertLevelWarning  AlertLevel = "warning"
	AlertLevelError    AlertLevel = "error"
	AlertLevelCritical AlertLevel = "critical"
)

// Alert is a threshold-breach record with its own small state machine:
// idle -> warning (value >= threshold) -> critical (value >= 1.25x
// threshold) -> resolved (value < threshold). At most one alert is active
// per (MetricName, Level) pair; subsequent breaches update Timestamp and
// MetricValue on the existing record instead of creating a new one.
type Alert struct {
	ID          uuid.UUID      `json:"id"`
	Level       AlertLevel     `json:"level"`
	Message     string         `json:"message"`
	Source      string         `json:"source"`
	Timestamp   time.Time      `json:"timestamp"`
	MetricName  string         `json:"metric_name,omitempty"`
	MetricValue float64        `json:"metric_value,omitempty"`
	Threshold   float64        `json:"threshold,omitempty"`
	Resolved    bool           `json:"resolved"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// MetricKind identifies the shape of a registered metric.
type MetricKind string

const (
	MetricGauge     MetricKind = "gauge"
	MetricCounter   MetricKind = "counter"
	MetricHistogram MetricKind = "histogram"
	MetricSummary   MetricKind = "summary"
)

// Thresholds mirrors internal/config.AlertThresholdsSchema.
type Thresholds struct {
	CPUPercent    float64
	MemoryPercent float64
	DiskPercent   float64
}

// Snapshot is the current point-in-time reading published every sampling
// cycle, and embedded in GenerateDiagnosticReport.
type Snapshot struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	DiskPercent   float64   `json:"disk_percent"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	SampledAt     time.Time `json:"sampled_at"`
}

// DiagnosticReport snapshots current metric values, active alerts, and
// resolved-alert history into one structured payload for GET
// /monitoring/diagnostics.
type DiagnosticReport struct {
	GeneratedAt    time.Time      `json:"generated_at"`
	Snapshot       Snapshot       `json:"snapshot"`
	ActiveAlerts   []Alert        `json:"active_alerts"`
	ResolvedAlerts []Alert        `json:"resolved_alerts"`
	Metrics        map[string]any `json:"metrics"`
}
