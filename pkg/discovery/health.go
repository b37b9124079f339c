package discovery

import (
	"context"
	"time"

	healthuc "github.com/selfadvocacy/discovery/internal/usecase/health"
)

// ComponentHealth is the probe result for one dependency.
type ComponentHealth struct {
	OK      bool
	Latency time.Duration
	Err     string
}

// HealthStatus summarizes the search index and profile store.
// Status is "ok", "degraded" (profile store down) or "error" (index down).
type HealthStatus struct {
	Status string
	Checks map[string]ComponentHealth
}

// Health pings the search index and, when the ProfileStore has a
// Ping(ctx) error method, the profile store.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]ComponentHealth, len(report.Checks))
	for name, r := range report.Checks {
		checks[name] = ComponentHealth{
			OK:      r.Result == healthuc.CheckOK,
			Latency: r.Latency,
			Err:     r.Error,
		}
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}
