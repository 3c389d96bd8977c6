package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAlertEscalationScenario walks one metric through the full state
// machine: thresholds {cpu_percent: 80}; readings 70, 82, 105, 60.
func TestAlertEscalationScenario(t *testing.T) {
	tracker := NewAlertTracker()

	active, resolved := tracker.Evaluate("cpu_percent", "test", 70, 80)
	require.Nil(t, active)
	require.Nil(t, resolved)
	require.Empty(t, tracker.ActiveAlerts())

	active, resolved = tracker.Evaluate("cpu_percent", "test", 82, 80)
	require.NotNil(t, active)
	require.Nil(t, resolved)
	require.Equal(t, AlertLevelWarning, active.Level)
	require.Len(t, tracker.ActiveAlerts(), 1)
	firstID := active.ID

	active, resolved = tracker.Evaluate("cpu_percent", "test", 105, 80)
	require.NotNil(t, active)
	require.Nil(t, resolved)
	require.Equal(t, AlertLevelCritical, active.Level)
	require.Equal(t, firstID, active.ID, "escalation must keep the same alert id")
	require.Len(t, tracker.ActiveAlerts(), 1, "still exactly one active alert")

	active, resolved = tracker.Evaluate("cpu_percent", "test", 60, 80)
	require.Nil(t, active)
	require.NotNil(t, resolved)
	require.Equal(t, firstID, resolved.ID)
	require.True(t, resolved.Resolved)
	require.Empty(t, tracker.ActiveAlerts())
	require.Len(t, tracker.ResolvedHistory(), 1)
}

func TestResolvedHistoryCapped(t *testing.T) {
	tracker := NewAlertTracker()
	for i := 0; i < resolvedHistoryCap+10; i++ {
		tracker.Evaluate("metric", "test", 90, 80)
		tracker.Evaluate("metric", "test", 10, 80)
	}
	require.Len(t, tracker.ResolvedHistory(), resolvedHistoryCap)
}

func TestEvaluateNoThresholdBreachIsNoop(t *testing.T) {
	tracker := NewAlertTracker()
	active, resolved := tracker.Evaluate("disk_percent", "test", 5, 80)
	require.Nil(t, active)
	require.Nil(t, resolved)
}
