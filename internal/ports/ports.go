// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). Following the Ports and Adapters (Hexagonal) pattern,
// these interfaces allow the application to remain independent of specific
// implementations like HTTP clients, process executors, or the CLI framework.
package ports

import (
	"context"

	"github.com/autofixops/fixops-go/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.fixops/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// AnalysisRequest carries one error log plus optional operator context.
type AnalysisRequest struct {
	ErrorLog  string
	Context   string
	RequestID string
}

// FeedbackRequest carries the inputs for one fix evaluation.
type FeedbackRequest struct {
	OriginalLog string
	AppliedFix  string
	NewLog      string
	RequestID   string
}

// Analyst wraps the inference API behind typed, non-throwing operations.
// Both methods always return a usable value: on any terminal failure the
// value is a fallback and the outcome describes what went wrong.
type Analyst interface {
	Analyze(context.Context, AnalysisRequest) (domain.Analysis, domain.CallOutcome)
	EvaluateFix(context.Context, FeedbackRequest) (domain.FeedbackVerdict, domain.CallOutcome)
}

// CommandExecutor runs one operator-chosen command without shell
// interpretation. Validation failures surface in the result, never as errors.
type CommandExecutor interface {
	Execute(ctx context.Context, commandLine string) domain.CommandResult
}

// CommandPolicy is the policy data behind the executor: a closed whitelist of
// executable names and a denylist of raw-string patterns. Both are loaded
// from configuration, not hard-coded.
type CommandPolicy interface {
	Permitted(executable string) bool
	ForbiddenMatch(commandLine string) (rule string, matched bool)
}

// MetricsRecorder receives every call, command, and feedback outcome.
type MetricsRecorder interface {
	RecordCall(outcome domain.CallOutcome, category, severity string)
	RecordCommand(result domain.CommandResult)
	RecordFeedback(success bool)
	Snapshot() domain.MetricSnapshot
}

// HostInspector gathers environmental context for prompts and diagnostics.
type HostInspector interface {
	Collect(context.Context) domain.HostSnapshot
}

// Logger is the minimal logging facade used across layers.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
