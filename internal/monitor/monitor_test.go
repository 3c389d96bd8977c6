package monitor

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/nexuscore/nexus/internal/eventbus"
)

func newTestMonitor(t *testing.T) (*Monitor, *eventbus.Bus) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	bus := eventbus.New(eventbus.Config{MaxQueueSize: 16}, log)
	bus.Start()
	t.Cleanup(bus.Stop)

	m := New(Config{
		Enabled:                true,
		MetricsIntervalSeconds: 10,
		Thresholds:             Thresholds{CPUPercent: 80},
	}, nil, bus, nil, log)
	return m, bus
}

func TestEvaluatePublishesAlertAndResolution(t *testing.T) {
	m, bus := newTestMonitor(t)

	events := make(chan eventbus.Event, 8)
	bus.Subscribe("test", "*", func(ev eventbus.Event) {
		events <- ev
	})

	m.evaluate("cpu_percent", 82, 80)
	select {
	case ev := <-events:
		require.Equal(t, "monitoring/alert", ev.EventType)
	case <-time.After(time.Second):
		t.Fatal("expected an alert event")
	}

	m.evaluate("cpu_percent", 10, 80)
	select {
	case ev := <-events:
		require.Equal(t, "monitoring/alert_resolved", ev.EventType)
	case <-time.After(time.Second):
		t.Fatal("expected a resolved event")
	}
}

func TestGenerateDiagnosticReportIncludesAlertsAndMetrics(t *testing.T) {
	m, _ := newTestMonitor(t)
	_, err := m.Metrics().RegisterGauge("custom_gauge", nil)
	require.NoError(t, err)

	m.evaluate("cpu_percent", 82, 80)

	report := m.GenerateDiagnosticReport()
	require.Len(t, report.ActiveAlerts, 1)
	require.Contains(t, report.Metrics["registered"], "custom_gauge")
}
