package db

import "github.com/selfadvocacy/discovery/internal/domain/search/filter"

// TextQuery is the input for a weighted full-text search.
// Fields and Weights are parallel; Term "*" browses without a text match.
type TextQuery struct {
	IndexName    string
	Term         string
	Fields       []string
	Weights      []int
	Predicate    filter.Predicate
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
