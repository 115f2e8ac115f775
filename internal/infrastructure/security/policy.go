// Package security holds the command policy: a whitelist of diagnostic
// executables and a denylist of forbidden raw-string patterns. Both are policy
// data, loaded from YAML, with embedded defaults when no file exists.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/autofixops/fixops-go/assets"
	"github.com/autofixops/fixops-go/internal/ports"
)

// ForbiddenRule describes one regex-based denylist entry.
type ForbiddenRule struct {
	Pattern string `yaml:"pattern"`
	Message string `yaml:"message"`
}

// PolicyFile is the YAML schema root.
type PolicyFile struct {
	Executor struct {
		AllowedBinaries   []string        `yaml:"allowed_binaries"`
		ForbiddenPatterns []ForbiddenRule `yaml:"forbidden_patterns"`
	} `yaml:"executor"`
}

// Policy implements the CommandPolicy port.
type Policy struct {
	allowed  map[string]struct{}
	patterns []compiledRule
}

type compiledRule struct {
	re   *regexp.Regexp
	rule ForbiddenRule
}

// NewPolicy loads the policy from disk, falling back to the embedded defaults
// when the file is absent.
func NewPolicy(path string) (*Policy, error) {
	file, err := loadPolicyFile(path)
	if err != nil {
		return nil, err
	}
	return compile(file)
}

func compile(file PolicyFile) (*Policy, error) {
	allowed := make(map[string]struct{}, len(file.Executor.AllowedBinaries))
	for _, name := range file.Executor.AllowedBinaries {
		name = strings.TrimSpace(name)
		if name != "" {
			allowed[name] = struct{}{}
		}
	}

	patterns := make([]compiledRule, 0, len(file.Executor.ForbiddenPatterns))
	for _, rule := range file.Executor.ForbiddenPatterns {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile forbidden pattern %q: %w", rule.Pattern, err)
		}
		patterns = append(patterns, compiledRule{re: re, rule: rule})
	}

	return &Policy{allowed: allowed, patterns: patterns}, nil
}

// Permitted implements ports.CommandPolicy. The executable is matched by base
// name, so "/bin/ls" and "ls" are the same whitelist entry.
func (p *Policy) Permitted(executable string) bool {
	_, ok := p.allowed[filepath.Base(executable)]
	return ok
}

// ForbiddenMatch implements ports.CommandPolicy. It scans the raw command
// string, not the token vector, so quoting tricks cannot hide a pattern.
func (p *Policy) ForbiddenMatch(commandLine string) (string, bool) {
	for _, pattern := range p.patterns {
		if pattern.re.MatchString(commandLine) {
			if pattern.rule.Message != "" {
				return pattern.rule.Message, true
			}
			return pattern.rule.Pattern, true
		}
	}
	return "", false
}

// AllowedBinaries returns the whitelist contents, for display.
func (p *Policy) AllowedBinaries() []string {
	out := make([]string, 0, len(p.allowed))
	for name := range p.allowed {
		out = append(out, name)
	}
	return out
}

// RuleCount returns the number of compiled forbidden patterns.
func (p *Policy) RuleCount() int {
	return len(p.patterns)
}

func loadPolicyFile(path string) (PolicyFile, error) {
	var file PolicyFile

	data, err := os.ReadFile(path)
	if err != nil {
		data = assets.DefaultPolicyYAML
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return PolicyFile{}, fmt.Errorf("parse policy: %w", err)
	}
	if len(file.Executor.AllowedBinaries) == 0 && len(file.Executor.ForbiddenPatterns) == 0 {
		if err := yaml.Unmarshal(assets.DefaultPolicyYAML, &file); err != nil {
			return PolicyFile{}, fmt.Errorf("parse embedded policy: %w", err)
		}
	}
	return file, nil
}

var _ ports.CommandPolicy = (*Policy)(nil)
