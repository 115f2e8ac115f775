package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/autofixops/fixops-go/internal/domain"
	"github.com/autofixops/fixops-go/internal/ports"
)

const (
	defaultEndpoint   = "https://api.anthropic.com/v1/messages"
	defaultAPIVersion = "2023-06-01"
	defaultAuthEnvVar = "ANTHROPIC_API_KEY"
	defaultModelID    = "claude-3-sonnet-20240229"
)

// Analyst implements ports.Analyst against the Anthropic Messages API. It is
// stateless across calls and safe for concurrent use.
type Analyst struct {
	model    domain.ModelDefinition
	settings domain.AnalysisSettings
	caller   *Caller
	host     ports.HostInspector
	logger   ports.Logger
}

// NewAnalyst wires the codec onto a retrying caller. host may be nil.
func NewAnalyst(model domain.ModelDefinition, settings domain.AnalysisSettings, caller *Caller, host ports.HostInspector, log ports.Logger) *Analyst {
	return &Analyst{model: model, settings: settings, caller: caller, host: host, logger: log}
}

// Ready reports whether an API credential is available.
func (a *Analyst) Ready() error {
	if a.apiKey() == "" {
		return fmt.Errorf("missing API key: set %s", a.authEnvVar())
	}
	return nil
}

// Analyze sends one error log for analysis. It never returns an error: every
// failure path yields a fallback Analysis plus the outcome describing it.
func (a *Analyst) Analyze(ctx context.Context, req ports.AnalysisRequest) (domain.Analysis, domain.CallOutcome) {
	payload := anthropicRequest{
		Model:     a.modelID(),
		MaxTokens: a.maxTokens(),
		System:    analysisSystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: a.buildAnalysisPrompt(ctx, req.ErrorLog, req.Context)},
		},
	}

	var decoded anthropicResponse
	outcome := a.post(ctx, payload, &decoded)
	if outcome.Failed() {
		return domain.FallbackAnalysis(failureReason(outcome), a.modelID()), outcome
	}

	block, err := extractJSONBlock(decoded.FirstText())
	if err == nil {
		analysis := defaultAnalysis(a.modelID())
		if err = json.Unmarshal(block, &analysis); err == nil {
			a.logger.Info("analysis tokens", map[string]interface{}{
				"request_id": req.RequestID,
				"input":      decoded.Usage.InputTokens,
				"output":     decoded.Usage.OutputTokens,
			})
			return analysis, outcome
		}
	}

	// A well-formed HTTP body without a usable result block is still a
	// parse failure from the contract's point of view.
	outcome.Kind = domain.CallParseError
	outcome.Detail = "no parseable result block in model response"
	a.logger.Error("analysis parse failure", err, map[string]interface{}{"request_id": req.RequestID})
	return domain.FallbackAnalysis(failureReason(outcome), a.modelID()), outcome
}

// EvaluateFix asks the model whether an applied fix resolved the original
// error. Same degradation contract as Analyze.
func (a *Analyst) EvaluateFix(ctx context.Context, req ports.FeedbackRequest) (domain.FeedbackVerdict, domain.CallOutcome) {
	payload := anthropicRequest{
		Model:     a.modelID(),
		MaxTokens: a.feedbackMaxTokens(),
		System:    feedbackSystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: a.buildFeedbackPrompt(req.OriginalLog, req.AppliedFix, req.NewLog)},
		},
	}

	var decoded anthropicResponse
	outcome := a.post(ctx, payload, &decoded)
	if outcome.Failed() {
		return domain.FallbackVerdict(failureReason(outcome)), outcome
	}

	block, err := extractJSONBlock(decoded.FirstText())
	if err == nil {
		verdict := domain.FeedbackVerdict{StillBroken: true, Analysis: "No analysis returned."}
		if err = json.Unmarshal(block, &verdict); err == nil {
			return verdict, outcome
		}
	}

	outcome.Kind = domain.CallParseError
	outcome.Detail = "no parseable result block in model response"
	a.logger.Error("feedback parse failure", err, map[string]interface{}{"request_id": req.RequestID})
	return domain.FallbackVerdict(failureReason(outcome)), outcome
}

func (a *Analyst) post(ctx context.Context, payload anthropicRequest, target *anthropicResponse) domain.CallOutcome {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.CallOutcome{Kind: domain.CallClientError, Detail: err.Error()}
	}

	headers := http.Header{}
	headers.Set("x-api-key", a.apiKey())
	headers.Set("anthropic-version", a.apiVersion())
	headers.Set("content-type", "application/json")

	return a.caller.Invoke(ctx, CallRequest{
		Endpoint: a.endpoint(),
		Headers:  headers,
		Body:     body,
		Target:   target,
	})
}

// buildAnalysisPrompt truncates the log before the first send so retries never
// resend an unbounded payload.
func (a *Analyst) buildAnalysisPrompt(ctx context.Context, errorLog, extra string) string {
	var builder strings.Builder
	builder.WriteString("Terminal error log:\n\n```\n")
	builder.WriteString(truncateMiddle(errorLog, a.maxLogChars()))
	builder.WriteString("\n```")
	if trimmed := strings.TrimSpace(extra); trimmed != "" {
		builder.WriteString("\n\nEnvironment context: ")
		builder.WriteString(truncateMiddle(trimmed, 500))
	}
	if a.host != nil {
		snap := a.host.Collect(ctx)
		builder.WriteString(fmt.Sprintf("\n\nHost: %s/%s, cwd %s", snap.OS, snap.Arch, snap.WorkingDir))
		if len(snap.AvailableTools) > 0 {
			builder.WriteString(", tools: " + strings.Join(snap.AvailableTools, ", "))
		}
	}
	return builder.String()
}

func (a *Analyst) buildFeedbackPrompt(originalLog, appliedFix, newLog string) string {
	return fmt.Sprintf(
		"ORIGINAL ERROR:\n```\n%s\n```\n\nFIX APPLIED:\n%s\n\nNEW OUTPUT:\n```\n%s\n```",
		truncateMiddle(originalLog, a.maxLogChars()),
		truncateMiddle(appliedFix, 1000),
		truncateMiddle(newLog, a.maxLogChars()),
	)
}

// truncateMiddle keeps the head and tail of long input, the diagnostically
// relevant sections, and drops the middle with an explicit marker.
func truncateMiddle(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	half := maxChars / 2
	dropped := len(text) - maxChars
	return fmt.Sprintf("%s\n\n... [%d characters truncated] ...\n\n%s", text[:half], dropped, text[len(text)-half:])
}

func failureReason(outcome domain.CallOutcome) string {
	switch outcome.Kind {
	case domain.CallRateLimitExhausted:
		return "API rate limit reached. Please wait a moment and try again."
	case domain.CallServerErrorExhausted:
		return fmt.Sprintf("API unavailable after %d attempts. Please try again shortly.", outcome.Attempts)
	case domain.CallTimeout:
		return "Request was cancelled before the analysis completed."
	case domain.CallParseError:
		return "Response parsing failed: the model returned an unexpected format."
	case domain.CallClientError:
		return fmt.Sprintf("API rejected the request (status %d).", outcome.StatusCode)
	default:
		return "Analysis could not be completed."
	}
}

func defaultAnalysis(model string) domain.Analysis {
	return domain.Analysis{
		ErrorType:        "Unknown Error",
		ErrorCategory:    "unknown",
		Severity:         "medium",
		Confidence:       "Insufficient context",
		ReasoningSummary: "No summary provided.",
		RootCause:        "Could not determine root cause.",
		FixSteps:         []string{},
		SafeCommands:     []string{},
		PreventionTips:   []string{},
		ModelUsed:        model,
	}
}

func (a *Analyst) modelID() string    { return valueOrDefault(a.model.ModelID, defaultModelID) }
func (a *Analyst) endpoint() string   { return valueOrDefault(a.model.Endpoint, defaultEndpoint) }
func (a *Analyst) apiVersion() string { return valueOrDefault(a.model.APIVersion, defaultAPIVersion) }
func (a *Analyst) authEnvVar() string { return valueOrDefault(a.model.AuthEnvVar, defaultAuthEnvVar) }
func (a *Analyst) apiKey() string     { return os.Getenv(a.authEnvVar()) }

func (a *Analyst) maxTokens() int {
	if a.model.MaxTokens > 0 {
		return a.model.MaxTokens
	}
	return domain.DefaultMaxTokens
}

func (a *Analyst) feedbackMaxTokens() int {
	if a.settings.FeedbackMaxTokens > 0 {
		return a.settings.FeedbackMaxTokens
	}
	return domain.DefaultFeedbackMaxTokens
}

func (a *Analyst) maxLogChars() int {
	if a.settings.MaxLogChars > 0 {
		return a.settings.MaxLogChars
	}
	return domain.DefaultMaxLogChars
}

func valueOrDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// FirstText returns the first content block, empty when none.
func (r anthropicResponse) FirstText() string {
	if len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

var _ ports.Analyst = (*Analyst)(nil)
