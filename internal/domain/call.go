// Package domain defines core business entities and value objects for FixOps.
//
// This file contains the outcome model for outbound inference API calls. Every
// call terminates in exactly one CallOutcome value; failures are data, not
// panics, so the HTTP layer can always render a structured response.
package domain

// CallKind classifies how an inference API call terminated.
type CallKind string

const (
	// CallSuccess means a 2xx response with a well-formed JSON body.
	CallSuccess CallKind = "success"
	// CallClientError means a non-retryable 4xx (other than 429).
	CallClientError CallKind = "client_error"
	// CallParseError means a 2xx response whose body could not be decoded.
	// Malformed success is not transient, so it is never retried.
	CallParseError CallKind = "parse_error"
	// CallRateLimitExhausted means every attempt ended in a 429.
	CallRateLimitExhausted CallKind = "rate_limit_exhausted"
	// CallServerErrorExhausted means retries were exhausted on 5xx or
	// transport failures.
	CallServerErrorExhausted CallKind = "server_error_exhausted"
	// CallTimeout means the enclosing context was cancelled or its deadline
	// expired while the call (or a backoff wait) was in flight.
	CallTimeout CallKind = "timeout"
)

// CallOutcome is the terminal result of one Invoke. Immutable once produced.
type CallOutcome struct {
	Kind       CallKind
	StatusCode int
	Attempts   int
	LatencyMS  int64
	Detail     string
}

// RateLimited reports whether the call ultimately failed on rate limiting.
func (o CallOutcome) RateLimited() bool {
	return o.Kind == CallRateLimitExhausted
}

// Failed reports whether the call ended without a usable payload.
func (o CallOutcome) Failed() bool {
	return o.Kind != CallSuccess
}
