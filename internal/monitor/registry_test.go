package monitor

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/nexuscore/nexus/internal/apperr"
)

func TestRegisterGaugeThenDuplicateFails(t *testing.T) {
	reg := NewMetricRegistry(prometheus.NewRegistry())

	vec, err := reg.RegisterGauge("queue_depth", []string{"queue"})
	require.NoError(t, err)
	require.NotNil(t, vec)

	_, err = reg.RegisterGauge("queue_depth", []string{"queue"})
	require.Error(t, err)
	require.True(t, apperr.HasKind(err, apperr.KindValidation))
}

func TestRegisterDifferentKindsSameNamespace(t *testing.T) {
	reg := NewMetricRegistry(prometheus.NewRegistry())

	_, err := reg.RegisterCounter("jobs_total", nil)
	require.NoError(t, err)

	_, err = reg.RegisterHistogram("job_duration_seconds", nil, nil)
	require.NoError(t, err)

	_, err = reg.RegisterSummary("job_latency_seconds", nil)
	require.NoError(t, err)

	require.Equal(t, []string{"job_duration_seconds", "job_latency_seconds", "jobs_total"}, reg.Names())
}

func TestSanitizeMetricName(t *testing.T) {
	cases := map[string]string{
		"Queue Depth!": "queue_depth_",
		"":             "unnamed_metric",
		"2fast":        "m_2fast",
	}
	for input, want := range cases {
		require.Equal(t, want, sanitizeMetricName(input))
	}
}
