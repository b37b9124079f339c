package outcome

import (
	"slices"

	"github.com/selfadvocacy/discovery/internal/domain/candidate"
)

// State is the active variant of an Outcome.
type State string

// Outcome states.
const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateEmpty   State = "empty"
	StateFailed  State = "failed"
)

// IsTerminal reports whether a search attempt has settled.
func (s State) IsTerminal() bool {
	return s == StateSuccess || s == StateEmpty || s == StateFailed
}

// EmptyReason classifies an empty result.
type EmptyReason string

// NoCriteriaMatch means the query ran and nothing matched.
const NoCriteriaMatch EmptyReason = "no_criteria_match"

// Outcome is the tagged search state exposed to clients. Exactly one variant is active.
type Outcome struct {
	state      State
	candidates []candidate.Candidate
	reason     EmptyReason
	err        error
	page       int
	exhausted  bool
}

// Idle is the state before any search and after a reset.
func Idle() Outcome { return Outcome{state: StateIdle} }

// Loading is the state while a search is in flight.
func Loading() Outcome { return Outcome{state: StateLoading} }

// Success carries the ordered candidate list of the pages loaded so far.
func Success(cs []candidate.Candidate, page int, exhausted bool) Outcome {
	return Outcome{state: StateSuccess, candidates: slices.Clone(cs), page: page, exhausted: exhausted}
}

// Empty reports a valid zero-result search.
func Empty(reason EmptyReason) Outcome {
	return Outcome{state: StateEmpty, reason: reason, exhausted: true}
}

// Failed reports a terminal search failure.
func Failed(err error) Outcome { return Outcome{state: StateFailed, err: err} }

// State returns the active variant.
func (o Outcome) State() State {
	if o.state == "" {
		return StateIdle
	}
	return o.state
}

// Candidates returns a copy of the candidate list (Success only).
func (o Outcome) Candidates() []candidate.Candidate { return slices.Clone(o.candidates) }

// Reason returns the empty reason (Empty only).
func (o Outcome) Reason() EmptyReason { return o.reason }

// Err returns the failure (Failed only).
func (o Outcome) Err() error { return o.err }

// Page returns the last loaded page (Success only).
func (o Outcome) Page() int { return o.page }

// Exhausted reports whether no further pages are available.
func (o Outcome) Exhausted() bool { return o.exhausted }
