package discovery

import (
	"context"
	"time"

	discoveryuc "github.com/selfadvocacy/discovery/internal/usecase/discovery"
)

// Session is one requester's discovery flow in one mode.
type Session struct {
	ctrl *discoveryuc.Controller
	obs  *observer
}

// Search starts a search immediately, superseding any in flight, and waits
// for it to settle. A non-nil error means ctx ended first; the returned
// Outcome is then the Loading state. Search failures are reported in
// Outcome.Err, not as an error.
func (s *Session) Search(ctx context.Context, cr Criteria) (Outcome, error) {
	start := time.Now()
	s.ctrl.IssueSearch(toDomainCriteria(cr))
	out, err := s.Wait(ctx)
	s.obs.observeOutcome("search", start, out, err)
	return out, err
}

// Update records edited criteria and starts the search once edits pause.
// Call Wait to collect the result.
func (s *Session) Update(cr Criteria) {
	s.ctrl.ScheduleSearch(toDomainCriteria(cr))
}

// LoadMore fetches the next page and appends candidates not yet shown.
// ok is false when the session has nothing more to load.
func (s *Session) LoadMore(ctx context.Context) (out Outcome, ok bool, err error) {
	start := time.Now()
	if !s.ctrl.LoadMore() {
		return s.Outcome(), false, nil
	}
	out, err = s.Wait(ctx)
	s.obs.observeOutcome("load_more", start, out, err)
	return out, true, err
}

// Wait blocks until no search is pending or in flight.
func (s *Session) Wait(ctx context.Context) (Outcome, error) {
	o, err := s.ctrl.Wait(ctx)
	return fromDomainOutcome(o), err
}

// Outcome returns the current state without waiting.
func (s *Session) Outcome() Outcome {
	return fromDomainOutcome(s.ctrl.Outcome())
}

// Criteria returns the normalized criteria of the latest search.
func (s *Session) Criteria() Criteria {
	return fromDomainCriteria(s.ctrl.Criteria())
}

// Mode returns the session's discovery mode.
func (s *Session) Mode() Mode {
	return Mode(s.ctrl.Mode())
}

// Reset discards results and pending work and restores default criteria.
func (s *Session) Reset() {
	s.ctrl.Reset()
}
