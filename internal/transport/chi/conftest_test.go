package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/selfadvocacy/discovery/internal/domain"
	"github.com/selfadvocacy/discovery/internal/domain/profile"
	"github.com/selfadvocacy/discovery/internal/domain/search/hit"
	"github.com/selfadvocacy/discovery/internal/domain/search/query"
	discoveryuc "github.com/selfadvocacy/discovery/internal/usecase/discovery"
	healthuc "github.com/selfadvocacy/discovery/internal/usecase/health"
)

// fakeIndex answers every query with the configured hits or error.
type fakeIndex struct {
	mu    sync.Mutex
	hits  []hit.Hit
	err   error
	block bool
	calls int
}

func (f *fakeIndex) Query(ctx context.Context, _ query.Query) ([]hit.Hit, error) {
	f.mu.Lock()
	f.calls++
	hits, err, block := f.hits, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return hits, err
}

type fakeProfiles map[string]profile.Profile

func (f fakeProfiles) Get(_ context.Context, id string) (profile.Profile, error) {
	p, ok := f[id]
	if !ok {
		return profile.Profile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func testProfiles() fakeProfiles {
	return fakeProfiles{
		"u1": {ID: "u1", Username: "ada", SubscriptionTier: "basic"},
		"u2": {ID: "u2", Username: "bo", SubscriptionTier: "dating", Gender: "male", GenderPreference: "female"},
		"u3": {ID: "u3", Username: "cy", SubscriptionTier: "dating", Gender: "female"},
	}
}

func hits(ids ...string) []hit.Hit {
	out := make([]hit.Hit, len(ids))
	for i, id := range ids {
		out[i] = hit.Hit{ID: id, Username: "user-" + id, Age: 30, Region: "CA"}
	}
	return out
}

func manyHits(n int) []hit.Hit {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("h%02d", i)
	}
	return hits(ids...)
}

type testEnv struct {
	handler  http.Handler
	registry *discoveryuc.Registry
	index    *fakeIndex
}

func newTestEnv(t *testing.T, idx *fakeIndex, opts Options, ropts RouterOptions) *testEnv {
	t.Helper()
	reg := discoveryuc.NewRegistry(discoveryuc.RegistryConfig{Index: idx, Profiles: testProfiles()})
	t.Cleanup(reg.CloseAll)

	health := healthuc.New(pinger{}, pinger{}, nil)
	srv := NewServer(reg, health, opts, nil)
	return &testEnv{handler: NewRouter(srv, ropts), registry: reg, index: idx}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeOutcome(t *testing.T, rr *httptest.ResponseRecorder) OutcomeResponse {
	t.Helper()
	var resp OutcomeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode outcome: %v (body %q)", err, rr.Body.String())
	}
	return resp
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return resp
}

func candidateIDs(resp OutcomeResponse) []string {
	ids := make([]string, len(resp.Candidates))
	for i, c := range resp.Candidates {
		ids[i] = c.ID
	}
	return ids
}

var shortTimeout = Options{SearchTimeout: 2 * time.Second}
