package search

import (
	"context"
	"testing"

	"github.com/selfadvocacy/discovery/internal/db"
	"github.com/selfadvocacy/discovery/internal/domain/search/filter"
	"github.com/selfadvocacy/discovery/internal/domain/search/query"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchTextFn func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, Config{Index: "profiles", KeyPrefix: "profile:", Backend: "test"})
	return repo, ms
}

func mustQuery(t *testing.T, term string, weights []query.FieldWeight, limit, page int) query.Query {
	t.Helper()
	gte, _ := filter.NewRange(query.FieldAge, filter.Gte, 18)
	lte, _ := filter.NewRange(query.FieldAge, filter.Lte, 99)
	ne, _ := filter.NewNotMatch(query.FieldID, "u1")
	p, err := filter.NewPredicate(gte, lte, ne)
	if err != nil {
		t.Fatalf("NewPredicate: %v", err)
	}
	q, err := query.New(p, term, weights, limit, page)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}
