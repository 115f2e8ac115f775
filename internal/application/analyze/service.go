// Package analyze orchestrates the analysis lifecycle: truncate, call the
// inference API through the resilient caller, degrade gracefully, record
// metrics.
package analyze

import (
	"context"
	"errors"
	"strings"

	"github.com/autofixops/fixops-go/internal/domain"
	"github.com/autofixops/fixops-go/internal/ports"
)

// ErrEmptyLog is returned when no error log was provided.
var ErrEmptyLog = errors.New("no error log provided")

// Result pairs the analysis payload with server-side timing for the response.
type Result struct {
	Analysis       domain.Analysis
	Outcome        domain.CallOutcome
	ResponseTimeMS int64
}

// FeedbackResult pairs the verdict with the call outcome.
type FeedbackResult struct {
	Verdict domain.FeedbackVerdict
	Outcome domain.CallOutcome
}

// Service runs analyses and fix evaluations end-to-end.
type Service struct {
	Analyst ports.Analyst
	Metrics ports.MetricsRecorder
	Logger  ports.Logger
}

// Run processes a single log analysis. Terminal API failures surface as
// fallback analyses, never as errors; the only error here is empty input.
func (s *Service) Run(ctx context.Context, req ports.AnalysisRequest) (Result, error) {
	if s.Analyst == nil || s.Metrics == nil || s.Logger == nil {
		return Result{}, errors.New("analyze.Service dependencies not satisfied")
	}
	req.ErrorLog = strings.TrimSpace(req.ErrorLog)
	if req.ErrorLog == "" {
		return Result{}, ErrEmptyLog
	}

	s.Logger.Info("analysis request received", map[string]interface{}{
		"request_id": req.RequestID,
		"log_len":    len(req.ErrorLog),
	})

	analysis, outcome := s.Analyst.Analyze(ctx, req)

	s.Logger.Info("analysis complete", map[string]interface{}{
		"request_id": req.RequestID,
		"category":   analysis.ErrorCategory,
		"severity":   analysis.Severity,
		"kind":       string(outcome.Kind),
		"elapsed_ms": outcome.LatencyMS,
	})

	s.Metrics.RecordCall(outcome, analysis.ErrorCategory, analysis.Severity)

	return Result{
		Analysis:       analysis,
		Outcome:        outcome,
		ResponseTimeMS: outcome.LatencyMS,
	}, nil
}

// EvaluateFix processes one feedback evaluation and records it.
func (s *Service) EvaluateFix(ctx context.Context, req ports.FeedbackRequest) (FeedbackResult, error) {
	if s.Analyst == nil || s.Metrics == nil || s.Logger == nil {
		return FeedbackResult{}, errors.New("analyze.Service dependencies not satisfied")
	}

	verdict, outcome := s.Analyst.EvaluateFix(ctx, req)

	s.Logger.Info("feedback evaluation", map[string]interface{}{
		"request_id": req.RequestID,
		"fix_worked": verdict.FixWorked,
		"kind":       string(outcome.Kind),
	})

	s.Metrics.RecordFeedback(verdict.FixWorked)

	return FeedbackResult{Verdict: verdict, Outcome: outcome}, nil
}
