package query

import (
	"fmt"

	"github.com/selfadvocacy/discovery/internal/domain/search/filter"
)

// Wildcard is the search term for an unconstrained browse.
const Wildcard = "*"

// Indexed text fields.
const (
	FieldTopicTags    = "topicTags"
	FieldAnswerText   = "answerText"
	FieldSelectedTags = "selectedTags"
)

// Filterable fields.
const (
	FieldAge              = "age_sort"
	FieldID               = "id"
	FieldSubscriptionType = "subscriptionType"
	FieldRegion           = "region"
	FieldGender           = "gender"
)

// FieldWeight is a searched text field with its relevance weight.
type FieldWeight struct {
	Field  string
	Weight int
}

// Query is a compiled, immutable request for the search index.
type Query struct {
	predicate filter.Predicate
	term      string
	weights   []FieldWeight
	limit     int
	page      int
}

// New validates and creates a Query. page is 1-based; zero means the first page.
func New(predicate filter.Predicate, term string, weights []FieldWeight, limit, page int) (Query, error) {
	if term == "" {
		return Query{}, fmt.Errorf("search term is required")
	}
	if len(weights) == 0 {
		return Query{}, fmt.Errorf("at least one searched field is required")
	}
	for _, w := range weights {
		if w.Field == "" {
			return Query{}, fmt.Errorf("searched field name is required")
		}
		if w.Weight <= 0 {
			return Query{}, fmt.Errorf("weight for %q must be positive", w.Field)
		}
	}
	if limit <= 0 {
		return Query{}, fmt.Errorf("limit must be positive")
	}
	if page <= 0 {
		page = 1
	}

	cp := make([]FieldWeight, len(weights))
	copy(cp, weights)

	return Query{
		predicate: predicate,
		term:      term,
		weights:   cp,
		limit:     limit,
		page:      page,
	}, nil
}

// Predicate returns the filter predicate.
func (q Query) Predicate() filter.Predicate { return q.predicate }

// SearchTerm returns the text to search, or Wildcard.
func (q Query) SearchTerm() string { return q.term }

// IsBrowse reports whether the query is an unconstrained browse.
func (q Query) IsBrowse() bool { return q.term == Wildcard }

// FieldWeights returns a copy of the weighted fields in order.
func (q Query) FieldWeights() []FieldWeight {
	cp := make([]FieldWeight, len(q.weights))
	copy(cp, q.weights)
	return cp
}

// Limit returns the page size.
func (q Query) Limit() int { return q.limit }

// Page returns the 1-based page number.
func (q Query) Page() int { return q.page }

// WithPage returns a copy of the query targeting another page.
func (q Query) WithPage(page int) Query {
	if page <= 0 {
		page = 1
	}
	cp := q
	cp.weights = q.FieldWeights()
	cp.page = page
	return cp
}

// Request is the wire-level shape sent to a search index.
type Request struct {
	SearchTerm     string
	FieldsToSearch []string
	FieldWeights   []int
	Filter         string
	ResultLimit    int
	Page           int
}

// Request renders the query into index request form with parallel field/weight lists.
func (q Query) Request() Request {
	fields := make([]string, len(q.weights))
	weights := make([]int, len(q.weights))
	for i, w := range q.weights {
		fields[i] = w.Field
		weights[i] = w.Weight
	}
	return Request{
		SearchTerm:     q.term,
		FieldsToSearch: fields,
		FieldWeights:   weights,
		Filter:         q.predicate.String(),
		ResultLimit:    q.limit,
		Page:           q.page,
	}
}
