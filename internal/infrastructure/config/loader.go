// Package config loads service configuration from YAML.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/autofixops/fixops-go/assets"
	"github.com/autofixops/fixops-go/internal/domain"
	"github.com/autofixops/fixops-go/internal/ports"
)

// FileLoader loads YAML configuration from ~/.fixops/config.yaml (overridable
// via FIXOPS_CONFIG). On first run it writes the embedded defaults.
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
				return domain.Config{}, err
			}
			data = assets.DefaultConfigYAML
		} else {
			return domain.Config{}, err
		}
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}

	return hydrateDefaults(cfg), nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv("FIXOPS_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(userHomeDir(), ".fixops", "config.yaml")
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Analysis.MaxLogChars == 0 {
		cfg.Analysis.MaxLogChars = domain.DefaultMaxLogChars
	}
	if cfg.Analysis.MaxRetries == 0 {
		cfg.Analysis.MaxRetries = domain.DefaultMaxRetries
	}
	if cfg.Analysis.BaseBackoffSeconds == 0 {
		cfg.Analysis.BaseBackoffSeconds = domain.DefaultBaseBackoffSeconds
	}
	if cfg.Analysis.MaxJitterMS == 0 {
		cfg.Analysis.MaxJitterMS = int(domain.DefaultMaxJitter.Milliseconds())
	}
	if cfg.Analysis.TimeoutSeconds == 0 {
		cfg.Analysis.TimeoutSeconds = int(domain.DefaultCallTimeout.Seconds())
	}
	if cfg.Analysis.FeedbackMaxTokens == 0 {
		cfg.Analysis.FeedbackMaxTokens = domain.DefaultFeedbackMaxTokens
	}
	if cfg.Execution.TimeoutSeconds == 0 {
		cfg.Execution.TimeoutSeconds = int(domain.DefaultCommandTimeout.Seconds())
	}
	if cfg.Execution.OutputCapBytes == 0 {
		cfg.Execution.OutputCapBytes = domain.DefaultOutputCapBytes
	}
	if cfg.Model.MaxTokens == 0 {
		cfg.Model.MaxTokens = domain.DefaultMaxTokens
	}
	if cfg.Security.PolicyFile == "" {
		cfg.Security.PolicyFile = filepath.Join(userHomeDir(), ".fixops", "policy.yaml")
	} else {
		cfg.Security.PolicyFile = expandPath(cfg.Security.PolicyFile)
	}
	return cfg
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(userHomeDir(), path[2:])
	}
	return path
}

func userHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
