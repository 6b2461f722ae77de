package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounterAndGauge(t *testing.T) {
	c := NewMetricsCollector()

	ctr := c.Counter("test_total", "test counter")
	ctr.Inc()
	ctr.Inc()
	if ctr.Value() != 2 {
		t.Errorf("expected 2, got %d", ctr.Value())
	}
	if c.Counter("test_total", "test counter") != ctr {
		t.Error("same name should return same counter")
	}

	g := c.Gauge("test_active", "test gauge")
	g.Inc()
	g.Inc()
	g.Dec()
	if g.Value() != 1 {
		t.Errorf("expected 1, got %d", g.Value())
	}
}

func TestHandler_Exposition(t *testing.T) {
	c := NewMetricsCollector()
	c.Counter("pipeline_events_total", "events").Inc()
	c.Gauge("pipeline_active", "active").Set(3)

	req := httptest.NewRequest("GET", "/metricsz", nil)
	rr := httptest.NewRecorder()
	c.Handler()(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"# TYPE pipeline_events_total counter",
		"pipeline_events_total 1",
		"# TYPE pipeline_active gauge",
		"pipeline_active 3",
		"orunmila_uptime_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q:\n%s", want, body)
		}
	}
}
