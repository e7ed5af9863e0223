package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDecision(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordDecision(true, "")
	m.RecordDecision(false, "block-shell")
	m.RecordDecision(false, "block-shell")

	if got := testutil.ToFloat64(m.Evaluations.WithLabelValues("allow")); got != 1 {
		t.Errorf("allow = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Evaluations.WithLabelValues("block")); got != 2 {
		t.Errorf("block = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Denials.WithLabelValues("block-shell")); got != 2 {
		t.Errorf("denials = %v, want 2", got)
	}
}

func TestRecordMapAndGaps(t *testing.T) {
	m := New(nil)

	m.RecordMap("soc2", 50)
	m.RecordMap("soc2", 63)
	m.RecordGaps("soc2", 3)

	if got := testutil.ToFloat64(m.Mappings.WithLabelValues("soc2")); got != 2 {
		t.Errorf("mappings = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Coverage.WithLabelValues("soc2")); got != 63 {
		t.Errorf("coverage = %v, want 63", got)
	}
	if got := testutil.ToFloat64(m.RemediationItems.WithLabelValues("soc2")); got != 3 {
		t.Errorf("remediation items = %v, want 3", got)
	}
}

func TestObserve(t *testing.T) {
	m := New(nil)
	m.Observe("map", time.Now())

	if n := testutil.CollectAndCount(m.Duration); n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordDecision(false, "x")
	m.RecordMap("soc2", 10)
	m.RecordGaps("soc2", 1)
	m.Observe("check", time.Now())
	if m.Registry() != nil {
		t.Error("nil metrics should have no registry")
	}
}

func TestHandler(t *testing.T) {
	m := New(nil)
	m.RecordMap("gdpr", 42)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `guardmap_coverage_percentage{framework="gdpr"} 42`) {
		t.Errorf("metrics output missing coverage gauge:\n%s", body)
	}
}
