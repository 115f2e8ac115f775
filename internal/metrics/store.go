// Package metrics is the in-process observability store. It is the only
// component with shared mutable state: every counter and the rolling latency
// window are owned here and mutated under one mutex.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/autofixops/fixops-go/internal/domain"
	"github.com/autofixops/fixops-go/internal/ports"
)

// Store aggregates call, command, and feedback outcomes. All methods are safe
// to call concurrently; Snapshot returns a consistent copy that reflects no
// partially-applied update.
type Store struct {
	mu sync.Mutex

	totalAnalyses      int64
	totalCommandsRun   int64
	totalFeedbackEvals int64
	fixesConfirmed     int64

	byCategory map[string]int64
	bySeverity map[string]int64

	rateLimitHits int64
	serverErrors  int64
	timeoutHits   int64
	parseErrors   int64

	window *latencyWindow

	startedAt time.Time
	now       func() time.Time
}

// NewStore constructs a Store and records its start time for uptime display.
func NewStore() *Store {
	return newStoreAt(time.Now)
}

func newStoreAt(now func() time.Time) *Store {
	return &Store{
		byCategory: make(map[string]int64),
		bySeverity: make(map[string]int64),
		window:     newLatencyWindow(domain.LatencyWindowSize),
		startedAt:  now(),
		now:        now,
	}
}

// RecordCall folds one inference call outcome into the aggregates. Unknown
// category and severity labels are accepted and counted dynamically.
func (s *Store) RecordCall(outcome domain.CallOutcome, category, severity string) {
	if category == "" {
		category = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalAnalyses++
	s.byCategory[category]++
	s.bySeverity[severity]++
	s.window.push(float64(outcome.LatencyMS))

	switch outcome.Kind {
	case domain.CallRateLimitExhausted:
		s.rateLimitHits++
	case domain.CallServerErrorExhausted:
		s.serverErrors++
	case domain.CallTimeout:
		s.timeoutHits++
	case domain.CallParseError:
		s.parseErrors++
	}
}

// RecordCommand counts one executed (or rejected) diagnostic command.
func (s *Store) RecordCommand(domain.CommandResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalCommandsRun++
}

// RecordFeedback counts one fix evaluation.
func (s *Store) RecordFeedback(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalFeedbackEvals++
	if success {
		s.fixesConfirmed++
	}
}

// Snapshot copies all aggregates out under the lock and computes percentiles
// over a sorted copy of the window. The returned value shares nothing with
// live state.
func (s *Store) Snapshot() domain.MetricSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	byCategory := make(map[string]int64, len(s.byCategory))
	for label, count := range s.byCategory {
		byCategory[label] = count
	}
	bySeverity := make(map[string]int64, len(s.bySeverity))
	for label, count := range s.bySeverity {
		bySeverity[label] = count
	}

	samples := s.window.sortedCopy()
	uptime := s.now().Sub(s.startedAt)

	var fixRate float64
	if s.totalFeedbackEvals > 0 {
		fixRate = round1(float64(s.fixesConfirmed) / float64(s.totalFeedbackEvals) * 100)
	}
	var errRate float64
	if s.totalAnalyses > 0 {
		failures := s.rateLimitHits + s.serverErrors + s.timeoutHits + s.parseErrors
		errRate = round1(float64(failures) / float64(s.totalAnalyses) * 100)
	}

	return domain.MetricSnapshot{
		UptimeHuman:   formatUptime(uptime),
		UptimeSeconds: int64(uptime.Seconds()),
		Totals: domain.MetricTotals{
			Analyses:      s.totalAnalyses,
			CommandsRun:   s.totalCommandsRun,
			FeedbackEvals: s.totalFeedbackEvals,
		},
		ByCategory: byCategory,
		BySeverity: bySeverity,
		ResponseTimeMS: domain.LatencySummary{
			P50:     nearestRank(samples, 50),
			P95:     nearestRank(samples, 95),
			P99:     nearestRank(samples, 99),
			Samples: len(samples),
		},
		FixSuccessRatePct: fixRate,
		APIHealth: domain.APIHealth{
			ErrorRatePct:  errRate,
			RateLimitHits: s.rateLimitHits,
			TimeoutHits:   s.timeoutHits,
			ParseErrors:   s.parseErrors,
		},
	}
}

// nearestRank selects the value at rank ceil(p/100*n) of ascending sorted
// data (1-based), the classic nearest-rank percentile. Zero when empty.
func nearestRank(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// latencyWindow is a fixed-capacity FIFO ring; push is O(1) and evicts the
// oldest sample on overflow.
type latencyWindow struct {
	samples []float64
	head    int
	full    bool
}

func newLatencyWindow(capacity int) *latencyWindow {
	if capacity <= 0 {
		capacity = domain.LatencyWindowSize
	}
	return &latencyWindow{samples: make([]float64, 0, capacity)}
}

func (w *latencyWindow) push(v float64) {
	if !w.full && len(w.samples) < cap(w.samples) {
		w.samples = append(w.samples, v)
		if len(w.samples) == cap(w.samples) {
			w.full = true
		}
		return
	}
	w.samples[w.head] = v
	w.head = (w.head + 1) % len(w.samples)
}

func (w *latencyWindow) sortedCopy() []float64 {
	out := make([]float64, len(w.samples))
	copy(out, w.samples)
	sort.Float64s(out)
	return out
}

func formatUptime(d time.Duration) string {
	total := int64(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

var _ ports.MetricsRecorder = (*Store)(nil)
