package health

import (
	"context"
	"sync"
	"time"
)

// ProbeTimeout bounds each dependency ping so one hung backend cannot stall
// the whole report.
const ProbeTimeout = 2 * time.Second

// Status is the overall verdict.
type Status string

// Index failures are fatal for discovery; other failures only degrade it.
const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"
	Unhealthy Status = "error"
)

// CheckResult is the verdict for one component.
type CheckResult string

// Component verdicts.
const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentIndex    = "index"
	ComponentProfiles = "profiles"
	ComponentCache    = "cache"
)

// Check is one component's probe result.
type Check struct {
	Result  CheckResult
	Latency time.Duration
	Error   string
}

// Report aggregates the component checks.
type Report struct {
	Status Status
	Checks map[string]Check
}

// Service probes discovery's dependencies.
type Service struct {
	probes  map[string]Pinger
	timeout time.Duration
}

// New creates a Service. cache is nil when the tier cache is disabled.
func New(index, profiles, cache Pinger) *Service {
	probes := map[string]Pinger{
		ComponentIndex:    index,
		ComponentProfiles: profiles,
	}
	if cache != nil {
		probes[ComponentCache] = cache
	}
	return &Service{probes: probes, timeout: ProbeTimeout}
}

// Check pings every component concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]Check, len(s.probes))
	)
	for name, p := range s.probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := s.probe(ctx, p)
			mu.Lock()
			checks[name] = c
			mu.Unlock()
		}()
	}
	wg.Wait()

	return Report{Status: verdict(checks), Checks: checks}
}

func (s *Service) probe(ctx context.Context, p Pinger) Check {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	c := Check{Result: CheckOK, Latency: time.Since(start)}
	if err != nil {
		c.Result = CheckError
		c.Error = err.Error()
	}
	return c
}

func verdict(checks map[string]Check) Status {
	if checks[ComponentIndex].Result == CheckError {
		return Unhealthy
	}
	for _, c := range checks {
		if c.Result == CheckError {
			return Degraded
		}
	}
	return Healthy
}
