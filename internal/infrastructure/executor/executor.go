// Package executor runs operator-chosen diagnostic commands with no shell
// interpretation. The command line is tokenized, validated against the
// command policy, and spawned directly from the argument vector, so no token
// is ever re-interpreted as shell syntax.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	shellwords "github.com/mattn/go-shellwords"

	"github.com/autofixops/fixops-go/internal/domain"
	"github.com/autofixops/fixops-go/internal/ports"
)

// SafeExecutor implements ports.CommandExecutor. It holds no per-call state
// and is safe for concurrent use; each call spawns at most one child process.
type SafeExecutor struct {
	policy    ports.CommandPolicy
	timeout   time.Duration
	outputCap int
	logger    ports.Logger
}

// NewSafeExecutor builds an executor around a command policy.
func NewSafeExecutor(policy ports.CommandPolicy, settings domain.ExecutionSettings, log ports.Logger) *SafeExecutor {
	timeout := time.Duration(settings.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = domain.DefaultCommandTimeout
	}
	capBytes := settings.OutputCapBytes
	if capBytes <= 0 {
		capBytes = domain.DefaultOutputCapBytes
	}
	return &SafeExecutor{policy: policy, timeout: timeout, outputCap: capBytes, logger: log}
}

// Execute validates and runs one command line. Validation failures
// short-circuit with a rejection reason in the result; they are never errors.
func (e *SafeExecutor) Execute(ctx context.Context, commandLine string) domain.CommandResult {
	trimmed := strings.TrimSpace(commandLine)
	result := domain.CommandResult{Command: trimmed}

	argv, err := tokenize(trimmed)
	if err != nil {
		result.Rejection = domain.RejectedUnparseable
		result.Stderr = fmt.Sprintf("cannot tokenize command: %v", err)
		return result
	}
	if len(argv) == 0 {
		result.Rejection = domain.RejectedEmpty
		result.Stderr = "empty command after tokenization"
		return result
	}

	// The denylist is scanned before the whitelist so a destructive command
	// is always reported as forbidden, whatever its binary.
	if rule, matched := e.policy.ForbiddenMatch(trimmed); matched {
		result.Rejection = domain.RejectedForbiddenPattern
		result.Stderr = fmt.Sprintf("blocked: %s", rule)
		e.logger.Warn("command blocked by policy", map[string]interface{}{"command": trimmed, "rule": rule})
		return result
	}

	if !e.policy.Permitted(argv[0]) {
		result.Rejection = domain.RejectedNotWhitelisted
		result.Stderr = fmt.Sprintf("%q is not in the diagnostic whitelist", argv[0])
		return result
	}

	return e.spawn(ctx, trimmed, argv)
}

func (e *SafeExecutor) spawn(ctx context.Context, commandLine string, argv []string) domain.CommandResult {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	stdout := newCappedBuffer(e.outputCap)
	stderr := newCappedBuffer(e.outputCap)

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Own process group, so timeout expiry reaps the whole tree, not just
	// the immediate child.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := domain.CommandResult{
		Command:    commandLine,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMS: elapsed.Milliseconds(),
		Ran:        true,
		TimedOut:   errors.Is(runCtx.Err(), context.DeadlineExceeded),
	}

	switch {
	case err == nil:
		result.ExitCode = 0
	case isExitError(err):
		result.ExitCode = err.(*exec.ExitError).ExitCode()
	case result.TimedOut:
		result.ExitCode = -1
		if result.Stderr == "" {
			result.Stderr = fmt.Sprintf("timeout: command exceeded %s and was terminated", e.timeout)
		}
	default:
		// Spawn failure (binary missing from PATH and the like).
		result.Ran = false
		result.ExitCode = 127
		result.Stderr = err.Error()
	}

	e.logger.Debug("command finished", map[string]interface{}{
		"command": commandLine, "exit_code": result.ExitCode,
		"duration_ms": result.DurationMS, "timed_out": result.TimedOut,
	})
	return result
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// tokenize splits a command line with shell-word quoting rules but without
// any expansion: no env substitution, no backticks, no globbing. Pure.
func tokenize(commandLine string) ([]string, error) {
	parser := shellwords.NewParser()
	return parser.Parse(commandLine)
}

// cappedBuffer keeps at most max bytes and records that excess was dropped;
// truncation is always marked, never silent.
type cappedBuffer struct {
	buf       bytes.Buffer
	max       int
	truncated bool
}

func newCappedBuffer(max int) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	room := b.max - b.buf.Len()
	if room <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	out := strings.TrimRight(b.buf.String(), "\n")
	if b.truncated {
		out += fmt.Sprintf("\n... [output truncated at %s]", humanize.Bytes(uint64(b.max)))
	}
	return out
}

var _ ports.CommandExecutor = (*SafeExecutor)(nil)
