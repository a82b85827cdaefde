package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bimmerbailey/jigyokei/internal/analysis"
	"github.com/bimmerbailey/jigyokei/internal/catalog"
	"github.com/bimmerbailey/jigyokei/internal/config"
	"github.com/bimmerbailey/jigyokei/internal/metrics"
	"github.com/bimmerbailey/jigyokei/internal/output"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// stubAnalyzer returns result and records the logs it was given.
type stubAnalyzer struct {
	mu     sync.Mutex
	result analysis.Result
	logs   []string
}

func (s *stubAnalyzer) Analyze(ctx context.Context, log string) analysis.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	return s.result
}

type stubCheck struct{ err error }

func (c stubCheck) Heartbeat(context.Context) error { return c.err }

var twoRisks = analysis.Result{Risks: []analysis.RiskRecord{
	{Category: "物", Summary: "店舗の火災リスク", TriggerPhrase: "火事が一番怖いね。", RecommendedSolution: "火災共済（店舗・設備補償）"},
	{Category: "人", Summary: "経営者の休業リスク", TriggerPhrase: "俺が倒れたら", RecommendedSolution: "商工会の福祉共済, 経営者休業補償制度"},
}}

func newTestServer(t *testing.T, a Analyzer, mutate func(*Options)) *Server {
	t.Helper()
	opts := Options{
		Config:  config.Default().Server,
		Metrics: metrics.New(),
		Logger:  testLogger(),
	}
	opts.Config.RateLimit = 0
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(a, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, Options{Logger: testLogger()}); err == nil {
		t.Error("New() should reject nil analyzer")
	}
	if _, err := New(&stubAnalyzer{}, Options{}); err == nil {
		t.Error("New() should reject nil logger")
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	for _, path := range []string{"/analyze", "/"} {
		t.Run(path, func(t *testing.T) {
			a := &stubAnalyzer{result: twoRisks}
			s := newTestServer(t, a, nil)

			rec := do(t, s.Handler(), http.MethodPost, path, `{"conversation_log": "社長：火事が一番怖いね。"}`)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("Content-Type = %q", ct)
			}
			if len(a.logs) != 1 || a.logs[0] != "社長：火事が一番怖いね。" {
				t.Errorf("analyzer received %q", a.logs)
			}

			var got output.AnalysisResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if len(got.RawAnalysis.Risks) != 2 {
				t.Errorf("raw_analysis risks = %d, want 2", len(got.RawAnalysis.Risks))
			}
			if got.RiskPresentationText != output.RiskList(twoRisks.Risks) {
				t.Errorf("risk_presentation_text = %q", got.RiskPresentationText)
			}
			if got.SolutionPresentationText != output.SolutionList(twoRisks.Risks) {
				t.Errorf("solution_presentation_text = %q", got.SolutionPresentationText)
			}
		})
	}
}

func TestAnalyzeEndpointNoRisks(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{result: analysis.Result{Risks: []analysis.RiskRecord{}}}, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/analyze", `{"conversation_log": ""}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if got["error"] != output.NoRisksMessage {
		t.Errorf("error = %q, want %q", got["error"], output.NoRisksMessage)
	}
}

func TestAnalyzeEndpointBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid json", `{"conversation_log": `, http.StatusBadRequest},
		{"missing field", `{"log": "x"}`, http.StatusBadRequest},
		{"wrong type", `{"conversation_log": 42}`, http.StatusBadRequest},
		{"too large", `{"conversation_log": "` + strings.Repeat("あ", 100) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &stubAnalyzer{result: twoRisks}
			s := newTestServer(t, a, func(o *Options) { o.Config.MaxBodyBytes = 64 })

			rec := do(t, s.Handler(), http.MethodPost, "/analyze", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}

			var got map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || got["error"] == "" {
				t.Errorf("expected JSON error body, got %s", rec.Body.String())
			}
			if len(a.logs) != 0 {
				t.Error("analyzer must not run for a rejected request")
			}
		})
	}
}

func TestAnalyzeEndpointMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, nil)
	if rec := do(t, s.Handler(), http.MethodGet, "/analyze", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /analyze status = %d, want 405", rec.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, func(o *Options) {
		o.Checks = map[string]HealthChecker{"llm": stubCheck{}}
	})

	if rec := do(t, s.Handler(), http.MethodGet, "/health", ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("GET /health = %d %q", rec.Code, rec.Body.String())
	}

	rec := do(t, s.Handler(), http.MethodGet, "/ready", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /ready status = %d", rec.Code)
	}
	var health HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("ready body: %v", err)
	}
	if health.Status != "ready" || health.Checks["llm"].Status != "healthy" {
		t.Errorf("ready = %+v", health)
	}
}

func TestReadyUnavailable(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, func(o *Options) {
		o.Checks = map[string]HealthChecker{"llm": stubCheck{err: errors.New("llm provider is not reachable")}}
	})

	rec := do(t, s.Handler(), http.MethodGet, "/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /ready status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not reachable") {
		t.Errorf("ready body should carry the check error: %s", rec.Body.String())
	}
}

func TestCatalogEndpoint(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/catalog", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /catalog status = %d", rec.Code)
	}
	var got catalog.Catalog
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("catalog body: %v", err)
	}
	if len(got.Products) != len(catalog.Default().Products) || got.Fallback.Name != catalog.FallbackName {
		t.Errorf("catalog = %+v", got)
	}
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/health", "")
	if id := rec.Header().Get(requestIDHeader); len(id) != 36 {
		t.Errorf("generated request id = %q, want a UUID", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if id := rec.Header().Get(requestIDHeader); id != "abc-123" {
		t.Errorf("propagated request id = %q, want abc-123", id)
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "https://example.jp")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Errorf("preflight missing Access-Control-Allow-Origin: %v", rec.Header())
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Errorf("preflight should allow credentials: %v", rec.Header())
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{result: twoRisks}, func(o *Options) {
		o.Config.RateLimit = 0.5
		o.Config.RateBurst = 2
	})

	body := `{"conversation_log": "x"}`
	for i := 0; i < 2; i++ {
		if rec := do(t, s.Handler(), http.MethodPost, "/analyze", body); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}

	rec := do(t, s.Handler(), http.MethodPost, "/analyze", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "2" {
		t.Errorf("Retry-After = %q, want 2", rec.Header().Get("Retry-After"))
	}

	if rec := do(t, s.Handler(), http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health must not be rate limited, got %d", rec.Code)
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := newRateLimiter(1, 1)
	now := time.Now()

	if !rl.allow("10.0.0.1", now) {
		t.Fatal("first request should pass")
	}
	if rl.allow("10.0.0.1", now) {
		t.Error("second immediate request should be limited")
	}
	if !rl.allow("10.0.0.2", now) {
		t.Error("a different client has its own bucket")
	}
	if !rl.allow("10.0.0.1", now.Add(time.Second)) {
		t.Error("bucket should refill after one second")
	}

	rl.allow("10.0.0.3", now.Add(20*time.Minute))
	if _, ok := rl.clients["10.0.0.2"]; ok {
		t.Error("idle clients should be swept")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{result: twoRisks}, nil)

	do(t, s.Handler(), http.MethodPost, "/analyze", `{"conversation_log": "x"}`)
	rec := do(t, s.Handler(), http.MethodGet, "/metrics", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", rec.Code)
	}
	want := `jigyokei_http_requests_total{method="POST",route="/analyze",status="200"} 1`
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("metrics missing %q", want)
	}
}

func TestServeGracefulShutdown(t *testing.T) {
	s := newTestServer(t, &stubAnalyzer{result: twoRisks}, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
