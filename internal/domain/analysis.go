package domain

// Analysis is the structured result of one log analysis.
type Analysis struct {
	ErrorType        string   `json:"error_type"`
	ErrorCategory    string   `json:"error_category"`
	Severity         string   `json:"severity"`
	Confidence       string   `json:"confidence"`
	ReasoningSummary string   `json:"reasoning_summary"`
	RootCause        string   `json:"root_cause"`
	Explanation      string   `json:"explanation"`
	FixSteps         []string `json:"fix_steps"`
	SafeCommands     []string `json:"safe_commands"`
	PreventionTips   []string `json:"prevention_tips"`
	ModelUsed        string   `json:"model_used"`
}

// FeedbackVerdict is the structured result of one fix evaluation.
type FeedbackVerdict struct {
	FixWorked   bool     `json:"fix_worked"`
	Analysis    string   `json:"analysis"`
	NextSteps   []string `json:"next_steps"`
	StillBroken bool     `json:"still_broken"`
}

// FallbackAnalysis is returned when the API call or response parsing failed.
// The reason lands in the reasoning summary so the client can surface it.
func FallbackAnalysis(reason, model string) Analysis {
	return Analysis{
		ErrorType:        "Analysis Unavailable",
		ErrorCategory:    "unknown",
		Severity:         "medium",
		Confidence:       "Unavailable",
		ReasoningSummary: reason,
		RootCause:        "Analysis could not be completed.",
		Explanation:      reason,
		FixSteps:         []string{"Retry the analysis, or review the error log manually."},
		SafeCommands:     []string{},
		PreventionTips:   []string{},
		ModelUsed:        model,
	}
}

// FallbackVerdict is the degraded answer for a failed fix evaluation.
func FallbackVerdict(reason string) FeedbackVerdict {
	return FeedbackVerdict{
		FixWorked:   false,
		Analysis:    reason,
		NextSteps:   []string{"Retry evaluation, or review the output manually."},
		StillBroken: true,
	}
}
