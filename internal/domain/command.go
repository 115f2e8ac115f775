package domain

// RejectionReason explains why a command never reached the spawn stage.
type RejectionReason string

const (
	// RejectedEmpty means the command tokenized to nothing.
	RejectedEmpty RejectionReason = "empty command"
	// RejectedNotWhitelisted means argv[0] is not a permitted diagnostic tool.
	RejectedNotWhitelisted RejectionReason = "executable not permitted"
	// RejectedForbiddenPattern means the raw string matched a denylist rule.
	// Checked regardless of the whitelist outcome.
	RejectedForbiddenPattern RejectionReason = "forbidden pattern"
	// RejectedUnparseable means the command could not be tokenized at all
	// (unbalanced quoting and the like).
	RejectedUnparseable RejectionReason = "unparseable command"
)

// CommandResult wraps everything observed about one command invocation.
// Immutable once produced. Ran is false when validation rejected the command
// pre-spawn, in which case ExitCode is meaningless and Rejection is set.
type CommandResult struct {
	Command    string          `json:"command"`
	Stdout     string          `json:"stdout"`
	Stderr     string          `json:"stderr"`
	ExitCode   int             `json:"exit_code"`
	Ran        bool            `json:"ran"`
	DurationMS int64           `json:"duration_ms"`
	TimedOut   bool            `json:"timed_out"`
	Rejection  RejectionReason `json:"rejection_reason,omitempty"`
}

// Rejected reports whether the command was stopped before spawning.
func (r CommandResult) Rejected() bool {
	return r.Rejection != ""
}
