package discovery

import (
	"fmt"
	"strings"

	"github.com/selfadvocacy/discovery/internal/domain"
	"github.com/selfadvocacy/discovery/internal/domain/criteria"
	"github.com/selfadvocacy/discovery/internal/domain/entitlement"
	"github.com/selfadvocacy/discovery/internal/domain/profile"
	"github.com/selfadvocacy/discovery/internal/domain/search/filter"
	"github.com/selfadvocacy/discovery/internal/domain/search/mode"
	"github.com/selfadvocacy/discovery/internal/domain/search/query"
)

var (
	freeTextWeights = []query.FieldWeight{
		{Field: query.FieldTopicTags, Weight: 2},
		{Field: query.FieldAnswerText, Weight: 1},
	}
	tagWeights = []query.FieldWeight{
		{Field: query.FieldSelectedTags, Weight: 1},
	}
	browseWeights = []query.FieldWeight{
		{Field: query.FieldTopicTags, Weight: 1},
		{Field: query.FieldAnswerText, Weight: 1},
		{Field: query.FieldSelectedTags, Weight: 1},
	}
)

// Compile turns criteria and the requester into the first page of a query.
// The only failure is domain.ErrIncompleteProfile for a dating search by a
// requester without gender or gender preference; everything else is normalized.
func Compile(c criteria.Criteria, r profile.Requester, m mode.Mode, s mode.Surface) (query.Query, error) {
	if m == mode.Dating && !r.HasDatingPreferences() {
		return query.Query{}, fmt.Errorf("compile dating query for %s: %w", r.ID, domain.ErrIncompleteProfile)
	}

	clauses, err := buildClauses(c, r, m)
	if err != nil {
		return query.Query{}, err
	}
	predicate, err := filter.NewPredicate(clauses...)
	if err != nil {
		return query.Query{}, fmt.Errorf("build predicate: %w", err)
	}

	term, weights := selectTerm(c)

	q, err := query.New(predicate, term, weights, s.Limit(), 1)
	if err != nil {
		return query.Query{}, fmt.Errorf("build query: %w", err)
	}
	return q, nil
}

func buildClauses(c criteria.Criteria, r profile.Requester, m mode.Mode) ([]filter.Clause, error) {
	ages := c.Ages()
	b := clauseBuilder{}

	b.rng(query.FieldAge, filter.Gte, ages.Min())
	b.rng(query.FieldAge, filter.Lte, ages.Max())
	b.not(query.FieldID, r.ID)

	if m == mode.Dating {
		b.match(query.FieldSubscriptionType, string(entitlement.TierDating))
	}
	if c.HasRegion() {
		b.match(query.FieldRegion, c.Region())
	}
	if m == mode.Dating {
		b.match(query.FieldGender, r.GenderPreference)
	}

	return b.clauses, b.err
}

// selectTerm applies the precedence free text > tags > browse.
func selectTerm(c criteria.Criteria) (string, []query.FieldWeight) {
	switch c.SearchMode() {
	case criteria.TermFreeText:
		return c.FreeText(), freeTextWeights
	case criteria.TermTags:
		return strings.Join(c.Tags(), " "), tagWeights
	default:
		return query.Wildcard, browseWeights
	}
}

// clauseBuilder collects clauses and keeps the first construction error.
type clauseBuilder struct {
	clauses []filter.Clause
	err     error
}

func (b *clauseBuilder) add(c filter.Clause, err error) {
	if b.err != nil {
		return
	}
	if err != nil {
		b.err = fmt.Errorf("build clause: %w", err)
		return
	}
	b.clauses = append(b.clauses, c)
}

func (b *clauseBuilder) rng(field string, op filter.Op, n int) { b.add(filter.NewRange(field, op, n)) }
func (b *clauseBuilder) match(field, value string)           { b.add(filter.NewMatch(field, value)) }
func (b *clauseBuilder) not(field, value string)             { b.add(filter.NewNotMatch(field, value)) }
