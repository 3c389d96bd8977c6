package api

import (
	"net/http"
	"strconv"

	"github.com/nexuscore/nexus/internal/monitor"
)

type monitoringHandlers struct {
	mon *monitor.Monitor
}

// alerts serves GET /monitoring/alerts?include_resolved&level&metric_name.
func (m *monitoringHandlers) alerts(w http.ResponseWriter, r *http.Request) {
	includeResolved, _ := strconv.ParseBool(r.URL.Query().Get("include_resolved"))
	level := r.URL.Query().Get("level")
	metricName := r.URL.Query().Get("metric_name")

	active := filterAlerts(m.mon.Alerts().ActiveAlerts(), level, metricName)
	resp := map[string]any{"active": active}
	if includeResolved {
		resp["resolved"] = filterAlerts(m.mon.Alerts().ResolvedHistory(), level, metricName)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (m *monitoringHandlers) diagnostics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.mon.GenerateDiagnosticReport())
}

func filterAlerts(alerts []monitor.Alert, level, metricName string) []monitor.Alert {
	if level == "" && metricName == "" {
		return alerts
	}
	out := make([]monitor.Alert, 0, len(alerts))
	for _, a := range alerts {
		if level != "" && string(a.Level) != level {
			continue
		}
		if metricName != "" && a.MetricName != metricName {
			continue
		}
		out = append(out, a)
	}
	return out
}
