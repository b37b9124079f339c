package indexer

import (
	"context"

	"github.com/selfadvocacy/discovery/internal/domain/profile"
)

// ProfileSource pages through the profile store in id order.
type ProfileSource interface {
	ListAfter(ctx context.Context, afterID string, limit int) ([]profile.Profile, error)
	Get(ctx context.Context, id string) (profile.Profile, error)
}

// ProfileSink writes profiles into the search index.
type ProfileSink interface {
	EnsureIndex(ctx context.Context) (bool, error)
	PutBatch(ctx context.Context, profiles []profile.Profile) error
	Remove(ctx context.Context, id string) error
}
