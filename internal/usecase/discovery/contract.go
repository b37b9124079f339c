package discovery

import (
	"context"

	"github.com/selfadvocacy/discovery/internal/domain/entitlement"
	"github.com/selfadvocacy/discovery/internal/domain/profile"
	"github.com/selfadvocacy/discovery/internal/domain/search/hit"
	"github.com/selfadvocacy/discovery/internal/domain/search/query"
)

// SearchIndex is the external full-text index. Implementations classify
// failures as domain.ErrNetwork or domain.ErrIndex.
type SearchIndex interface {
	Query(ctx context.Context, q query.Query) ([]hit.Hit, error)
}

// ProfileReader loads requester profiles.
type ProfileReader interface {
	Get(ctx context.Context, id string) (profile.Profile, error)
}

// TierReader returns the latest cached subscription tier of a member.
type TierReader interface {
	Tier(ctx context.Context, userID string) (entitlement.Tier, error)
}
