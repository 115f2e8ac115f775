// Package diagnose runs operator-chosen diagnostic command batches through
// the sandboxed executor and records the outcomes.
package diagnose

import (
	"context"
	"errors"

	"github.com/autofixops/fixops-go/internal/domain"
	"github.com/autofixops/fixops-go/internal/ports"
)

// Service executes command batches for the act step of a debugging session.
type Service struct {
	Executor ports.CommandExecutor
	Metrics  ports.MetricsRecorder
	Logger   ports.Logger
}

// RunBatch executes each command in order. Every command yields a result,
// rejected or not; a bad command never aborts the rest of the batch.
func (s *Service) RunBatch(ctx context.Context, requestID string, commands []string) ([]domain.CommandResult, error) {
	if s.Executor == nil || s.Metrics == nil || s.Logger == nil {
		return nil, errors.New("diagnose.Service dependencies not satisfied")
	}

	results := make([]domain.CommandResult, 0, len(commands))
	succeeded := 0
	for _, command := range commands {
		result := s.Executor.Execute(ctx, command)
		s.Metrics.RecordCommand(result)
		if result.Ran && result.ExitCode == 0 {
			succeeded++
		}
		results = append(results, result)
	}

	s.Logger.Info("execution batch complete", map[string]interface{}{
		"request_id": requestID,
		"commands":   len(commands),
		"succeeded":  succeeded,
	})
	return results, nil
}
