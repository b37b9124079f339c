package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/selfadvocacy/discovery/internal/domain/search/hit"
	"github.com/selfadvocacy/discovery/internal/domain/search/query"
)

// --- searchBackend mock ---

type mockBackend struct {
	mu      sync.Mutex
	queryFn func(ctx context.Context, q query.Query) ([]hit.Hit, error)
	pingErr error
	queries []query.Query
}

func (m *mockBackend) Query(ctx context.Context, q query.Query) ([]hit.Hit, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	fn := m.queryFn
	m.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, q)
}

func (m *mockBackend) Ping(context.Context) error { return m.pingErr }

func (m *mockBackend) calls() []query.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]query.Query(nil), m.queries...)
}

// --- ProfileStore mock ---

type mockProfiles map[string]Profile

func (m mockProfiles) Profile(_ context.Context, id string) (Profile, error) {
	p, ok := m[id]
	if !ok {
		return Profile{}, fmt.Errorf("user %s: %w", id, ErrProfileNotFound)
	}
	return p, nil
}

type pingingProfiles struct {
	mockProfiles
	err error
}

func (p pingingProfiles) Ping(context.Context) error { return p.err }

func testProfiles() mockProfiles {
	return mockProfiles{
		"u1": {ID: "u1", Username: "ada", SubscriptionTier: "supporter"},
		"u2": {ID: "u2", Username: "bo", SubscriptionTier: "Dating", Gender: "female", GenderPreference: "male"},
	}
}

func returnHits(ids ...string) func(context.Context, query.Query) ([]hit.Hit, error) {
	hits := make([]hit.Hit, len(ids))
	for i, id := range ids {
		hits[i] = hit.Hit{ID: id, Username: "name-" + id, Age: 27, Region: "CA"}
	}
	return func(context.Context, query.Query) ([]hit.Hit, error) { return hits, nil }
}
