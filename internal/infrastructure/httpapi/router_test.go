package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/autofixops/fixops-go/internal/application/analyze"
	"github.com/autofixops/fixops-go/internal/application/diagnose"
	"github.com/autofixops/fixops-go/internal/domain"
	"github.com/autofixops/fixops-go/internal/metrics"
	"github.com/autofixops/fixops-go/internal/pkg/logger"
	"github.com/autofixops/fixops-go/internal/ports"
)

type stubAnalyst struct{}

func (stubAnalyst) Analyze(_ context.Context, _ ports.AnalysisRequest) (domain.Analysis, domain.CallOutcome) {
	analysis := domain.Analysis{ErrorType: "Port Conflict", ErrorCategory: "network", Severity: "high", ModelUsed: "test-model"}
	outcome := domain.CallOutcome{Kind: domain.CallSuccess, StatusCode: 200, Attempts: 1, LatencyMS: 42}
	return analysis, outcome
}

func (stubAnalyst) EvaluateFix(_ context.Context, _ ports.FeedbackRequest) (domain.FeedbackVerdict, domain.CallOutcome) {
	return domain.FeedbackVerdict{FixWorked: true, Analysis: "resolved"},
		domain.CallOutcome{Kind: domain.CallSuccess, Attempts: 1}
}

type stubExecutor struct{}

func (stubExecutor) Execute(_ context.Context, commandLine string) domain.CommandResult {
	return domain.CommandResult{Command: commandLine, Ran: true, ExitCode: 0, Stdout: "ok"}
}

type readiness struct{ err error }

func (r readiness) Ready() error { return r.err }

func newTestServer(ready error) *Server {
	store := metrics.NewStore()
	log := logger.NewNop()
	analyzeService := &analyze.Service{Analyst: stubAnalyst{}, Metrics: store, Logger: log}
	diagnoseService := &diagnose.Service{Executor: stubExecutor{}, Metrics: store, Logger: log}
	return NewServer(analyzeService, diagnoseService, store, readiness{err: ready}, log)
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doJSON(t, newTestServer(nil).Handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "fixops" {
		t.Fatalf("unexpected health payload: %v", body)
	}
	if body["ai_enabled"] != true {
		t.Fatalf("expected ai_enabled true, got %v", body["ai_enabled"])
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	rec := doJSON(t, newTestServer(nil).Handler(), http.MethodPost, "/analyze", `{"log": "bind: address already in use"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID response header")
	}

	var body analysisResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.ErrorType != "Port Conflict" || body.Outcome != string(domain.CallSuccess) {
		t.Fatalf("unexpected analysis payload: %+v", body)
	}
	if body.RequestID == "" {
		t.Fatal("missing request_id in body")
	}
	if body.ResponseTimeMS != 42 {
		t.Fatalf("response time not propagated: %d", body.ResponseTimeMS)
	}
}

func TestAnalyzeAdoptsCallerRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"log": "x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "caller-chosen-id")
	rec := httptest.NewRecorder()
	newTestServer(nil).Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "caller-chosen-id" {
		t.Fatalf("caller request id not echoed, got %q", got)
	}
}

func TestAnalyzeRejectsBadBody(t *testing.T) {
	handler := newTestServer(nil).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/analyze", `{"context": "no log field"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing log, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/analyze", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestAnalyzeUnavailableWithoutCredential(t *testing.T) {
	server := newTestServer(errors.New("missing API key: set ANTHROPIC_API_KEY"))
	rec := doJSON(t, server.Handler(), http.MethodPost, "/analyze", `{"log": "boom"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "request_id") {
		t.Fatal("error body should carry the request id")
	}
}

func TestExecuteEndpoint(t *testing.T) {
	rec := doJSON(t, newTestServer(nil).Handler(), http.MethodPost, "/execute", `{"commands": ["ls -la", "df -h"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var results []domain.CommandResult
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(results) != 2 || results[0].Stdout != "ok" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestFeedbackEndpoint(t *testing.T) {
	payload := `{"original_log": "boom", "applied_fix": "restart", "new_log": "fine"}`
	rec := doJSON(t, newTestServer(nil).Handler(), http.MethodPost, "/feedback", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var body feedbackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !body.FixWorked {
		t.Fatalf("verdict not propagated: %+v", body)
	}
}

func TestMetricsEndpointReflectsActivity(t *testing.T) {
	server := newTestServer(nil)
	handler := server.Handler()

	doJSON(t, handler, http.MethodPost, "/analyze", `{"log": "boom"}`)
	doJSON(t, handler, http.MethodPost, "/execute", `{"commands": ["ls"]}`)

	rec := doJSON(t, handler, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap domain.MetricSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if snap.Totals.Analyses != 1 || snap.Totals.CommandsRun != 1 {
		t.Fatalf("metrics do not reflect activity: %+v", snap.Totals)
	}
	if snap.ByCategory["network"] != 1 {
		t.Fatalf("category counter missing: %+v", snap.ByCategory)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	rec := doJSON(t, newTestServer(nil).Handler(), http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
