package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, p *Prometheus, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := p.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	if len(m.GetLabel()) != len(want) {
		return false
	}
	for _, lp := range m.GetLabel() {
		if want[lp.GetName()] != lp.GetValue() {
			return false
		}
	}
	return true
}

func TestPrometheusCountsAssignmentsByOutcome(t *testing.T) {
	p := NewPrometheus("")
	p.RecordAssignment(OutcomeOK)
	p.RecordAssignment(OutcomeOK)
	p.RecordAssignment(OutcomeCapacityExceeded)

	if got := counterValue(t, p, "workboard_parts_assignments_total", map[string]string{"outcome": OutcomeOK}); got != 2 {
		t.Fatalf("ok assignments = %v, want 2", got)
	}
	if got := counterValue(t, p, "workboard_parts_assignments_total", map[string]string{"outcome": OutcomeCapacityExceeded}); got != 1 {
		t.Fatalf("capacity assignments = %v, want 1", got)
	}
}

func TestPrometheusPublishResults(t *testing.T) {
	p := NewPrometheus("wb")
	p.RecordEventPublish(true)
	p.RecordEventPublish(false)
	p.RecordEventPublish(false)

	if got := counterValue(t, p, "wb_events_published_total", map[string]string{"result": "error"}); got != 2 {
		t.Fatalf("publish errors = %v, want 2", got)
	}
}

func TestPrometheusHandlerExposesSeries(t *testing.T) {
	p := NewPrometheus("")
	p.RecordStatusChange("completed")
	p.RecordProgressRecompute(50)
	p.ObserveInsight("system", 0.01)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`workboard_parts_status_changes_total{status="completed"} 1`,
		"workboard_projects_progress_recomputes_total 1",
		`workboard_insights_duration_seconds_count{scope="system"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordAssignment(OutcomeNotFound)
	r.ObserveInsight("user", 1)
}
