package domain

// Config is the root configuration loaded from ~/.fixops/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Server              ServerSettings    `yaml:"server"`
	Model               ModelDefinition   `yaml:"model"`
	Analysis            AnalysisSettings  `yaml:"analysis"`
	Execution           ExecutionSettings `yaml:"execution"`
	Security            SecuritySettings  `yaml:"security"`
}

// ServerSettings configure the HTTP listener.
type ServerSettings struct {
	Addr string `yaml:"addr"`
}

// ModelDefinition describes the inference API endpoint and credentials.
// The API key itself is never stored in the file; only the env var name is.
type ModelDefinition struct {
	Endpoint   string `yaml:"endpoint"`
	AuthEnvVar string `yaml:"auth_env_var"`
	APIVersion string `yaml:"api_version"`
	ModelID    string `yaml:"model_id"`
	MaxTokens  int    `yaml:"max_tokens"`
}

// AnalysisSettings bound the cost and latency of one analysis call.
type AnalysisSettings struct {
	MaxLogChars        int     `yaml:"max_log_chars"`
	MaxRetries         int     `yaml:"max_retries"`
	BaseBackoffSeconds float64 `yaml:"base_backoff_seconds"`
	MaxJitterMS        int     `yaml:"max_jitter_ms"`
	TimeoutSeconds     int     `yaml:"timeout_seconds"`
	FeedbackMaxTokens  int     `yaml:"feedback_max_tokens"`
}

// ExecutionSettings bound diagnostic command execution.
type ExecutionSettings struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	OutputCapBytes int `yaml:"output_cap_bytes"`
}

// SecuritySettings point at the command policy file.
type SecuritySettings struct {
	PolicyFile string `yaml:"policy_file"`
}
