package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/autofixops/fixops-go/internal/domain"
	"github.com/autofixops/fixops-go/internal/pkg/logger"
)

func testPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseSeconds: 0.01, MaxJitter: 0}
}

func TestInvokeSucceedsAfterRateLimits(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	caller := NewCaller(server.Client(), testPolicy(3), logger.NewNop())
	var target map[string]bool
	outcome := caller.Invoke(context.Background(), CallRequest{Endpoint: server.URL, Target: &target})

	if outcome.Kind != domain.CallSuccess {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if outcome.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", outcome.Attempts)
	}
	if !target["ok"] {
		t.Fatal("response body was not decoded")
	}
}

func TestInvokeExhaustsOnPersistentRateLimit(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	caller := NewCaller(server.Client(), testPolicy(3), logger.NewNop())
	outcome := caller.Invoke(context.Background(), CallRequest{Endpoint: server.URL})

	if outcome.Kind != domain.CallRateLimitExhausted {
		t.Fatalf("expected rate-limit exhaustion, got %+v", outcome)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected exactly 3 requests, got %d", got)
	}
}

func TestInvokeExhaustsOnServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	caller := NewCaller(server.Client(), testPolicy(2), logger.NewNop())
	outcome := caller.Invoke(context.Background(), CallRequest{Endpoint: server.URL})

	if outcome.Kind != domain.CallServerErrorExhausted {
		t.Fatalf("expected server-error exhaustion, got %+v", outcome)
	}
	if outcome.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", outcome.Attempts)
	}
}

func TestInvokeClientErrorIsTerminal(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	caller := NewCaller(server.Client(), testPolicy(3), logger.NewNop())
	outcome := caller.Invoke(context.Background(), CallRequest{Endpoint: server.URL})

	if outcome.Kind != domain.CallClientError || outcome.StatusCode != http.StatusNotFound {
		t.Fatalf("expected terminal 404 client error, got %+v", outcome)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("client errors must not retry, saw %d requests", got)
	}
}

func TestInvokeMalformedSuccessIsParseError(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	caller := NewCaller(server.Client(), testPolicy(3), logger.NewNop())
	var target map[string]any
	outcome := caller.Invoke(context.Background(), CallRequest{Endpoint: server.URL, Target: &target})

	if outcome.Kind != domain.CallParseError {
		t.Fatalf("expected parse error, got %+v", outcome)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("a malformed success is not transient, saw %d requests", got)
	}
}

func TestInvokeCancelledDuringBackoffIsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	caller := NewCaller(server.Client(), testPolicy(3), logger.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	outcome := caller.Invoke(ctx, CallRequest{Endpoint: server.URL})
	if outcome.Kind != domain.CallTimeout {
		t.Fatalf("expected timeout, got %+v", outcome)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("backoff wait was not interruptible, took %v", elapsed)
	}
}

func TestInvokeTransportFailureRetriesLikeServerError(t *testing.T) {
	// A server that is immediately closed produces connection failures.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	caller := NewCaller(&http.Client{Timeout: time.Second}, testPolicy(2), logger.NewNop())
	outcome := caller.Invoke(context.Background(), CallRequest{Endpoint: url})

	if outcome.Kind != domain.CallServerErrorExhausted {
		t.Fatalf("expected server-error exhaustion on transport failure, got %+v", outcome)
	}
}
