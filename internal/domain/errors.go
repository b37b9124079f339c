package domain

import "errors"

var (
	// ErrIncompleteProfile signals that a dating search lacks the requester's gender or preference.
	ErrIncompleteProfile = errors.New("incomplete profile")
	// ErrNetwork signals a transport failure reaching the search index.
	ErrNetwork = errors.New("search index unreachable")
	// ErrIndex signals that the search index rejected the request or failed internally.
	ErrIndex = errors.New("search index error")
	// ErrNotEntitled signals that the requester's subscription does not cover the flow.
	ErrNotEntitled = errors.New("not entitled")
	// ErrProfileNotFound signals a missing requester profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrSuperseded signals that a newer search replaced this one; its result must be dropped.
	ErrSuperseded = errors.New("search superseded")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// IsSearchFailure reports whether err is one of the index-side failures
// that the UI collapses into a single "search failed, try again" state.
func IsSearchFailure(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrIndex)
}

// FailureKind labels a search failure for logs and metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIncompleteProfile):
		return "incomplete_profile"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrIndex):
		return "index"
	default:
		return "internal"
	}
}
