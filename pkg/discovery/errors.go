package discovery

import "github.com/selfadvocacy/discovery/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrProfileNotFound   = domain.ErrProfileNotFound
	ErrNotEntitled       = domain.ErrNotEntitled
	ErrIncompleteProfile = domain.ErrIncompleteProfile
	ErrNetwork           = domain.ErrNetwork
	ErrIndex             = domain.ErrIndex
)
