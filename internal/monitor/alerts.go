package monitor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// criticalMultiplier is the factor above threshold at which a warning alert
// escalates to critical.
const criticalMultiplier = 1.25

const resolvedHistoryCap = 100

// AlertTracker implements the idle -> warning -> critical -> resolved state
// machine. At most one alert is active per metric name at a time: crossing
// from warning into critical escalates that same alert (same id, updated
// Level/Timestamp/MetricValue) rather than opening a second slot. Falling
// back below threshold resolves the active alert into a capped
// resolved-history deque.
type AlertTracker struct {
	mu       sync.Mutex
	active   map[string]*Alert
	resolved []Alert
}

// NewAlertTracker builds an empty tracker.
func NewAlertTracker() *AlertTracker {
	return &AlertTracker{active: make(map[string]*Alert)}
}

// Evaluate feeds one sampled value for metric against threshold and returns
// the alert that is active after this call (for publishing on the event
// bus), plus the alert that was just resolved, if any.
func (t *AlertTracker) Evaluate(metric, source string, value, threshold float64) (active *Alert, resolved *Alert) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	existing, hasActive := t.active[metric]

	if value < threshold {
		if !hasActive {
			return nil, nil
		}
		existing.Resolved = true
		existing.ResolvedAt = &now
		existing.MetricValue = value
		delete(t.active, metric)
		t.pushHistoryLocked(*existing)
		resolvedCopy := *existing
		return nil, &resolvedCopy
	}

	level := AlertLevelWarning
	if value >= threshold*criticalMultiplier {
		level = AlertLevelCritical
	}

	if hasActive {
		existing.Level = level
		existing.Timestamp = now
		existing.MetricValue = value
		activeCopy := *existing
		return &activeCopy, nil
	}

	alert := &Alert{
		ID:          uuid.New(),
		Level:       level,
		Message:     alertMessage(metric, level),
		Source:      source,
		Timestamp:   now,
		MetricName:  metric,
		MetricValue: value,
		Threshold:   threshold,
	}
	t.active[metric] = alert
	activeCopy := *alert
	return &activeCopy, nil
}

func (t *AlertTracker) pushHistoryLocked(alert Alert) {
	t.resolved = append(t.resolved, alert)
	if len(t.resolved) > resolvedHistoryCap {
		t.resolved = t.resolved[len(t.resolved)-resolvedHistoryCap:]
	}
}

// ActiveAlerts returns a snapshot of all currently-active alerts.
func (t *AlertTracker) ActiveAlerts() []Alert {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Alert, 0, len(t.active))
	for _, a := range t.active {
		out = append(out, *a)
	}
	return out
}

// ResolvedHistory returns a snapshot of the resolved-alert history, oldest
// first, capped at resolvedHistoryCap entries.
func (t *AlertTracker) ResolvedHistory() []Alert {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Alert, len(t.resolved))
	copy(out, t.resolved)
	return out
}

func alertMessage(metric string, level AlertLevel) string {
	switch level {
	case AlertLevelCritical:
		return metric + " is critical"
	default:
		return metric + " exceeds threshold"
	}
}
