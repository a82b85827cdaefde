package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.HTTPRequest("GET", "/health", "200")
	m.ModelCall(StageExtraction, OutcomeOK, time.Second)
	m.SolutionFallback("unrecognized")
	m.ExtractionFailure("malformed")

	if m.Registry() != nil {
		t.Error("nil Metrics should have nil registry")
	}
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Errorf("nil Metrics handler status = %d, want 404", rec.Code)
	}
}

func TestCounters(t *testing.T) {
	m := New()

	m.ModelCall(StageMapping, OutcomeOK, 500*time.Millisecond)
	m.ModelCall(StageMapping, OutcomeOK, time.Second)
	m.ModelCall(StageExtraction, OutcomeTimeout, time.Minute)
	m.SolutionFallback("model_call")
	m.ExtractionFailure("empty")
	m.HTTPRequest("POST", "/analyze", "200")

	if got := testutil.ToFloat64(m.modelCalls.WithLabelValues(StageMapping, OutcomeOK)); got != 2 {
		t.Errorf("mapping ok calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.modelCalls.WithLabelValues(StageExtraction, OutcomeTimeout)); got != 1 {
		t.Errorf("extraction timeouts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.fallbacks.WithLabelValues("model_call")); got != 1 {
		t.Errorf("fallbacks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.extractFailures.WithLabelValues("empty")); got != 1 {
		t.Errorf("extraction failures = %v, want 1", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.HTTPRequest("POST", "/analyze", "200")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`jigyokei_http_requests_total{method="POST",route="/analyze",status="200"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
