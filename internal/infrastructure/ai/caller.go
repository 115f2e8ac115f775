// Package ai wraps the rate-limited inference API behind a bounded,
// structured-result caller plus the Anthropic Messages codec on top of it.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/autofixops/fixops-go/internal/domain"
	"github.com/autofixops/fixops-go/internal/ports"
)

// CallRequest describes one JSON POST. The payload must already be truncated
// by the codec; the caller sends it as-is on every attempt.
type CallRequest struct {
	Endpoint string
	Headers  http.Header
	Body     []byte
	// Target receives the decoded JSON body on success. A 2xx body that does
	// not unmarshal into it is a terminal parse error, never retried.
	Target interface{}
}

// Caller turns a flaky, rate-limited HTTP dependency into a bounded operation
// that always terminates in a CallOutcome. It holds no per-call state, so one
// Caller is safe for concurrent use.
type Caller struct {
	httpClient *http.Client
	policy     RetryPolicy
	logger     ports.Logger
}

// NewCaller builds a Caller. A nil client gets a default with the standard
// call timeout.
func NewCaller(client *http.Client, policy RetryPolicy, log ports.Logger) *Caller {
	if client == nil {
		client = &http.Client{Timeout: domain.DefaultCallTimeout}
	}
	return &Caller{httpClient: client, policy: policy.normalized(), logger: log}
}

// Invoke runs the retry state machine:
//
//	429            -> wait Retry-After (or floor) + jitter, retry
//	5xx, transport -> wait base^attempt + jitter, retry
//	2xx            -> decode; malformed body is a terminal parse error
//	other 4xx      -> terminal client error
//
// Exhausting the attempt limit on a retryable class yields the matching
// exhausted outcome. Context cancellation, including during a backoff wait,
// yields a terminal timeout. Latency accumulates across attempts only
// (backoff waits are excluded) and is reported once.
func (c *Caller) Invoke(ctx context.Context, req CallRequest) domain.CallOutcome {
	var (
		latency   time.Duration
		lastClass domain.CallKind = domain.CallServerErrorExhausted
		attempt   int
	)

	for attempt = 0; attempt < c.policy.MaxAttempts; attempt++ {
		status, retryAfter, result := c.send(ctx, req, &latency)
		switch result {
		case sendDone:
			return c.finish(domain.CallOutcome{
				Kind:       domain.CallSuccess,
				StatusCode: status,
				Attempts:   attempt + 1,
			}, latency)
		case sendParseError:
			return c.finish(domain.CallOutcome{
				Kind:       domain.CallParseError,
				StatusCode: status,
				Attempts:   attempt + 1,
				Detail:     "response body is not valid JSON",
			}, latency)
		case sendClientError:
			return c.finish(domain.CallOutcome{
				Kind:       domain.CallClientError,
				StatusCode: status,
				Attempts:   attempt + 1,
				Detail:     fmt.Sprintf("client error %d", status),
			}, latency)
		case sendCancelled:
			return c.finish(domain.CallOutcome{
				Kind:     domain.CallTimeout,
				Attempts: attempt + 1,
				Detail:   "request cancelled in flight",
			}, latency)
		case sendRateLimited:
			lastClass = domain.CallRateLimitExhausted
			if attempt == c.policy.MaxAttempts-1 {
				break
			}
			wait := c.policy.RateLimitWait(retryAfter)
			c.logger.Warn("rate limited, backing off", map[string]interface{}{
				"wait": wait.String(), "attempt": attempt + 1, "max": c.policy.MaxAttempts,
			})
			if !c.sleep(ctx, wait) {
				return c.finish(domain.CallOutcome{
					Kind:     domain.CallTimeout,
					Attempts: attempt + 1,
					Detail:   "cancelled during rate-limit wait",
				}, latency)
			}
		case sendServerError:
			lastClass = domain.CallServerErrorExhausted
			if attempt == c.policy.MaxAttempts-1 {
				break
			}
			wait := c.policy.ServerErrorWait(attempt)
			c.logger.Warn("server error, backing off", map[string]interface{}{
				"status": status, "wait": wait.String(), "attempt": attempt + 1, "max": c.policy.MaxAttempts,
			})
			if !c.sleep(ctx, wait) {
				return c.finish(domain.CallOutcome{
					Kind:     domain.CallTimeout,
					Attempts: attempt + 1,
					Detail:   "cancelled during backoff wait",
				}, latency)
			}
		}
	}

	detail := "retries exhausted on server errors"
	if lastClass == domain.CallRateLimitExhausted {
		detail = "retries exhausted on rate limiting"
	}
	return c.finish(domain.CallOutcome{
		Kind:     lastClass,
		Attempts: c.policy.MaxAttempts,
		Detail:   detail,
	}, latency)
}

type sendResult int

const (
	sendDone sendResult = iota
	sendRateLimited
	sendServerError
	sendClientError
	sendParseError
	sendCancelled
)

func (c *Caller) send(ctx context.Context, req CallRequest, latency *time.Duration) (status int, retryAfter string, result sendResult) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, bytes.NewReader(req.Body))
	if err != nil {
		return 0, "", sendClientError
	}
	for key, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	*latency += time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return 0, "", sendCancelled
		}
		// Transport timeouts and connection failures retry like a 5xx.
		return 0, "", sendServerError
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return resp.StatusCode, "", sendCancelled
		}
		return resp.StatusCode, "", sendServerError
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return resp.StatusCode, resp.Header.Get("Retry-After"), sendRateLimited
	case resp.StatusCode >= 500:
		return resp.StatusCode, "", sendServerError
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if req.Target != nil {
			if err := json.Unmarshal(body, req.Target); err != nil {
				return resp.StatusCode, "", sendParseError
			}
		}
		return resp.StatusCode, "", sendDone
	default:
		return resp.StatusCode, "", sendClientError
	}
}

// sleep waits out a backoff without blocking unrelated work; it returns false
// when the context was cancelled first.
func (c *Caller) sleep(ctx context.Context, wait time.Duration) bool {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Caller) finish(outcome domain.CallOutcome, latency time.Duration) domain.CallOutcome {
	outcome.LatencyMS = latency.Milliseconds()
	return outcome
}
