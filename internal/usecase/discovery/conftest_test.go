package discovery

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/selfadvocacy/discovery/internal/domain"
	"github.com/selfadvocacy/discovery/internal/domain/entitlement"
	"github.com/selfadvocacy/discovery/internal/domain/profile"
	"github.com/selfadvocacy/discovery/internal/domain/search/hit"
	"github.com/selfadvocacy/discovery/internal/domain/search/query"
)

// indexFunc adapts a function to SearchIndex.
type indexFunc func(ctx context.Context, q query.Query) ([]hit.Hit, error)

func (f indexFunc) Query(ctx context.Context, q query.Query) ([]hit.Hit, error) { return f(ctx, q) }

// recordingIndex answers with fixed results and records every query.
type recordingIndex struct {
	mu      sync.Mutex
	queries []query.Query
	hits    []hit.Hit
	err     error
}

func (r *recordingIndex) Query(_ context.Context, q query.Query) ([]hit.Hit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	return r.hits, r.err
}

func (r *recordingIndex) calls() []query.Query {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]query.Query(nil), r.queries...)
}

func (r *recordingIndex) set(hits []hit.Hit, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits, r.err = hits, err
}

type indexResult struct {
	hits []hit.Hit
	err  error
}

// pendingCall is a query held by blockingIndex until the test releases it.
type pendingCall struct {
	ctx     context.Context
	q       query.Query
	release chan indexResult
}

// blockingIndex parks each query until released, ignoring cancellation the
// way a network call that still completes would.
type blockingIndex struct {
	calls chan *pendingCall
}

func newBlockingIndex() *blockingIndex {
	return &blockingIndex{calls: make(chan *pendingCall, 16)}
}

func (b *blockingIndex) Query(ctx context.Context, q query.Query) ([]hit.Hit, error) {
	c := &pendingCall{ctx: ctx, q: q, release: make(chan indexResult, 1)}
	b.calls <- c
	r := <-c.release
	return r.hits, r.err
}

func (b *blockingIndex) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case c := <-b.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for index call")
		return nil
	}
}

type fakeProfiles map[string]profile.Profile

func (f fakeProfiles) Get(_ context.Context, id string) (profile.Profile, error) {
	p, ok := f[id]
	if !ok {
		return profile.Profile{}, fmt.Errorf("profile %s: %w", id, domain.ErrProfileNotFound)
	}
	return p, nil
}

type fakeTiers map[string]entitlement.Tier

func (f fakeTiers) Tier(_ context.Context, id string) (entitlement.Tier, error) {
	t, ok := f[id]
	if !ok {
		return "", domain.ErrProfileNotFound
	}
	return t, nil
}

func friendRequester() profile.Requester {
	return profile.Requester{ID: "u1", Tier: entitlement.TierBasic}
}

func datingRequester() profile.Requester {
	return profile.Requester{ID: "u1", Tier: entitlement.TierDating, Gender: "male", GenderPreference: "female"}
}

func mkHits(ids ...string) []hit.Hit {
	hits := make([]hit.Hit, len(ids))
	for i, id := range ids {
		hits[i] = hit.Hit{ID: id, Username: "user-" + id, Age: 30, Region: "CA"}
	}
	return hits
}

func rangeHits(prefix string, n int) []hit.Hit {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return mkHits(ids...)
}

func waitOutcome(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := c.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}
