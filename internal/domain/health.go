package domain

// HealthStatus indicates doctor check outcomes.
type HealthStatus string

const (
	HealthOK    HealthStatus = "ok"
	HealthWarn  HealthStatus = "warn"
	HealthError HealthStatus = "error"
)

// HealthCheck captures a single diagnostic result.
type HealthCheck struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Details string       `json:"details"`
}

// HealthReport aggregates checks.
type HealthReport struct {
	Checks []HealthCheck `json:"checks"`
}

// Worst returns the most severe status across all checks.
func (r HealthReport) Worst() HealthStatus {
	worst := HealthOK
	for _, c := range r.Checks {
		if c.Status == HealthError {
			return HealthError
		}
		if c.Status == HealthWarn {
			worst = HealthWarn
		}
	}
	return worst
}
