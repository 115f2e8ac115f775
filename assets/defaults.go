package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// DefaultPolicyYAML contains the embedded default command policy.
//
//go:embed defaults/policy.yaml
var DefaultPolicyYAML []byte
