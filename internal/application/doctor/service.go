// Package doctor runs environment diagnostics for the service.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/autofixops/fixops-go/internal/domain"
	"github.com/autofixops/fixops-go/internal/ports"
)

// PolicyInfo exposes what the doctor needs to know about the loaded policy.
type PolicyInfo interface {
	AllowedBinaries() []string
	RuleCount() int
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Policy         PolicyInfo
	HostInspector  ports.HostInspector
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded, format %s", cfg.ConfigFormatVersion)))

	checks = append(checks, apiKeyCheck(cfg.Model))

	if s.Policy != nil {
		checks = append(checks, ok("Command policy",
			fmt.Sprintf("%d whitelisted binaries, %d forbidden patterns", len(s.Policy.AllowedBinaries()), s.Policy.RuleCount())))
		checks = append(checks, whitelistCheck(s.Policy.AllowedBinaries()))
	} else {
		checks = append(checks, fail("Command policy", "policy not initialized"))
	}

	if s.HostInspector != nil {
		snapshot := s.HostInspector.Collect(ctx)
		checks = append(checks, ok("Host", fmt.Sprintf("%s/%s, %d tools detected", snapshot.OS, snapshot.Arch, len(snapshot.AvailableTools))))
	}

	return domain.HealthReport{Checks: checks}, nil
}

func apiKeyCheck(model domain.ModelDefinition) domain.HealthCheck {
	envVar := model.AuthEnvVar
	if envVar == "" {
		envVar = "ANTHROPIC_API_KEY"
	}
	if os.Getenv(envVar) == "" {
		return warn("API key", fmt.Sprintf("%s not set, analysis unavailable", envVar))
	}
	return ok("API key", fmt.Sprintf("%s present", envVar))
}

// whitelistCheck warns when whitelisted binaries are missing from PATH; a
// policy that permits tools the host lacks is a sign of drift.
func whitelistCheck(binaries []string) domain.HealthCheck {
	missing := 0
	for _, name := range binaries {
		if _, err := exec.LookPath(name); err != nil {
			missing++
		}
	}
	if missing > 0 {
		return warn("Whitelist binaries", fmt.Sprintf("%d of %d not on PATH", missing, len(binaries)))
	}
	return ok("Whitelist binaries", fmt.Sprintf("all %d on PATH", len(binaries)))
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
