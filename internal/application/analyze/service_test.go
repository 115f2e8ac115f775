package analyze

import (
	"context"
	"errors"
	"testing"

	"github.com/autofixops/fixops-go/internal/domain"
	"github.com/autofixops/fixops-go/internal/pkg/logger"
	"github.com/autofixops/fixops-go/internal/ports"
)

type stubAnalyst struct {
	analysis domain.Analysis
	verdict  domain.FeedbackVerdict
	outcome  domain.CallOutcome
	lastReq  ports.AnalysisRequest
}

func (a *stubAnalyst) Analyze(_ context.Context, req ports.AnalysisRequest) (domain.Analysis, domain.CallOutcome) {
	a.lastReq = req
	return a.analysis, a.outcome
}

func (a *stubAnalyst) EvaluateFix(_ context.Context, _ ports.FeedbackRequest) (domain.FeedbackVerdict, domain.CallOutcome) {
	return a.verdict, a.outcome
}

type recorderSpy struct {
	calls     []domain.CallOutcome
	category  string
	severity  string
	feedbacks []bool
	commands  int
}

func (r *recorderSpy) RecordCall(outcome domain.CallOutcome, category, severity string) {
	r.calls = append(r.calls, outcome)
	r.category = category
	r.severity = severity
}

func (r *recorderSpy) RecordCommand(domain.CommandResult) { r.commands++ }

func (r *recorderSpy) RecordFeedback(success bool) { r.feedbacks = append(r.feedbacks, success) }

func (r *recorderSpy) Snapshot() domain.MetricSnapshot { return domain.MetricSnapshot{} }

func TestRunRejectsEmptyLog(t *testing.T) {
	service := &Service{Analyst: &stubAnalyst{}, Metrics: &recorderSpy{}, Logger: logger.NewNop()}
	if _, err := service.Run(context.Background(), ports.AnalysisRequest{ErrorLog: "  \n\t "}); !errors.Is(err, ErrEmptyLog) {
		t.Fatalf("expected ErrEmptyLog, got %v", err)
	}
}

func TestRunRecordsOutcomeWithLabels(t *testing.T) {
	analyst := &stubAnalyst{
		analysis: domain.Analysis{ErrorCategory: "network", Severity: "high"},
		outcome:  domain.CallOutcome{Kind: domain.CallSuccess, Attempts: 1, LatencyMS: 42},
	}
	spy := &recorderSpy{}
	service := &Service{Analyst: analyst, Metrics: spy, Logger: logger.NewNop()}

	result, err := service.Run(context.Background(), ports.AnalysisRequest{ErrorLog: "connection refused", RequestID: "r1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ResponseTimeMS != 42 {
		t.Fatalf("response time should mirror call latency, got %d", result.ResponseTimeMS)
	}
	if len(spy.calls) != 1 || spy.category != "network" || spy.severity != "high" {
		t.Fatalf("outcome not recorded with analysis labels: %+v %q %q", spy.calls, spy.category, spy.severity)
	}
	if analyst.lastReq.ErrorLog != "connection refused" {
		t.Fatalf("trimmed log not forwarded: %q", analyst.lastReq.ErrorLog)
	}
}

func TestRunStillRecordsFallbackOutcomes(t *testing.T) {
	analyst := &stubAnalyst{
		analysis: domain.FallbackAnalysis("API rate limit reached.", "test-model"),
		outcome:  domain.CallOutcome{Kind: domain.CallRateLimitExhausted, Attempts: 3},
	}
	spy := &recorderSpy{}
	service := &Service{Analyst: analyst, Metrics: spy, Logger: logger.NewNop()}

	result, err := service.Run(context.Background(), ports.AnalysisRequest{ErrorLog: "boom"})
	if err != nil {
		t.Fatalf("degraded analyses must not surface as errors: %v", err)
	}
	if result.Analysis.ErrorType != "Analysis Unavailable" {
		t.Fatalf("expected fallback payload, got %+v", result.Analysis)
	}
	if len(spy.calls) != 1 || spy.calls[0].Kind != domain.CallRateLimitExhausted {
		t.Fatalf("failed outcome not recorded: %+v", spy.calls)
	}
}

func TestEvaluateFixRecordsVerdict(t *testing.T) {
	analyst := &stubAnalyst{
		verdict: domain.FeedbackVerdict{FixWorked: true, Analysis: "resolved"},
		outcome: domain.CallOutcome{Kind: domain.CallSuccess, Attempts: 1},
	}
	spy := &recorderSpy{}
	service := &Service{Analyst: analyst, Metrics: spy, Logger: logger.NewNop()}

	result, err := service.EvaluateFix(context.Background(), ports.FeedbackRequest{
		OriginalLog: "bind: address already in use", AppliedFix: "killed process", NewLog: "ok",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Verdict.FixWorked {
		t.Fatalf("verdict not passed through: %+v", result.Verdict)
	}
	if len(spy.feedbacks) != 1 || !spy.feedbacks[0] {
		t.Fatalf("feedback not recorded: %+v", spy.feedbacks)
	}
}

func TestServiceRequiresDependencies(t *testing.T) {
	service := &Service{}
	if _, err := service.Run(context.Background(), ports.AnalysisRequest{ErrorLog: "x"}); err == nil {
		t.Fatal("expected an error with nil dependencies")
	}
	if _, err := service.EvaluateFix(context.Background(), ports.FeedbackRequest{}); err == nil {
		t.Fatal("expected an error with nil dependencies")
	}
}
