package domain

// MetricSnapshot is a consistent point-in-time copy of all aggregate metrics.
// It holds no references into live store state and is safe to serialize with
// no lock held.
type MetricSnapshot struct {
	UptimeHuman       string           `json:"uptime_human"`
	UptimeSeconds     int64            `json:"uptime_seconds"`
	Totals            MetricTotals     `json:"totals"`
	ByCategory        map[string]int64 `json:"by_category"`
	BySeverity        map[string]int64 `json:"by_severity"`
	ResponseTimeMS    LatencySummary   `json:"response_time_ms"`
	FixSuccessRatePct float64          `json:"fix_success_rate_pct"`
	APIHealth         APIHealth        `json:"api_health"`
}

// MetricTotals are the monotone top-level counters.
type MetricTotals struct {
	Analyses      int64 `json:"analyses"`
	CommandsRun   int64 `json:"commands_run"`
	FeedbackEvals int64 `json:"feedback_evals"`
}

// LatencySummary carries nearest-rank percentiles over the rolling window.
type LatencySummary struct {
	P50     float64 `json:"p50"`
	P95     float64 `json:"p95"`
	P99     float64 `json:"p99"`
	Samples int     `json:"samples"`
}

// APIHealth summarizes upstream API behavior.
type APIHealth struct {
	ErrorRatePct  float64 `json:"error_rate_pct"`
	RateLimitHits int64   `json:"rate_limit_hits"`
	TimeoutHits   int64   `json:"timeout_hits"`
	ParseErrors   int64   `json:"parse_errors"`
}
