package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Cost-control and retry constants. These are the levers that bound worst-case
// spend and latency per request; config values of zero fall back to them.
const (
	// DefaultMaxLogChars caps analysis input before the first send.
	DefaultMaxLogChars = 6000
	// DefaultMaxTokens is the hard output cap for analysis responses.
	DefaultMaxTokens = 2048
	// DefaultFeedbackMaxTokens is a tighter cap for the shorter fix evaluations.
	DefaultFeedbackMaxTokens = 1024
	// DefaultMaxRetries caps API attempts per user request.
	DefaultMaxRetries = 3
	// DefaultBaseBackoffSeconds grows as base^attempt between 5xx retries.
	DefaultBaseBackoffSeconds = 1.5
	// DefaultMaxJitter bounds the random addition to any computed wait.
	DefaultMaxJitter = 500 * time.Millisecond
	// DefaultCallTimeout covers a single analysis round trip.
	DefaultCallTimeout = 60 * time.Second
)

// Command execution constants
const (
	// DefaultCommandTimeout is the per-command execution limit.
	DefaultCommandTimeout = 15 * time.Second
	// DefaultOutputCapBytes caps captured stdout and stderr, each.
	DefaultOutputCapBytes = 64 * 1024
)

// Metrics constants
const (
	// LatencyWindowSize is the rolling-window capacity for percentiles.
	LatencyWindowSize = 200
)
