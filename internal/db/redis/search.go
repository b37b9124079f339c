package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/selfadvocacy/discovery/internal/db"
	"github.com/selfadvocacy/discovery/internal/domain/search/filter"
)

const wildcard = "*"

// SearchText runs a weighted full-text search via FT.SEARCH.
// Each searched field becomes its own group carrying a $weight attribute;
// the groups are OR-ed and intersected with the predicate.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if len(q.Fields) != len(q.Weights) {
		return nil, fmt.Errorf("fields and weights length mismatch: %d != %d", len(q.Fields), len(q.Weights))
	}

	args := []string{q.IndexName, buildQuery(q)}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	args = append(args,
		"WITHSCORES",
		"LIMIT", strconv.Itoa(max(q.Offset, 0)), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	msg, err := s.exec(ctx, db.OpSearch, s.client.B().Arbitrary("FT.SEARCH").Args(args...).Build())
	if err != nil {
		return nil, err
	}
	raw, err := msg.ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("parse reply: %w", err)}
	}

	return parseScoredResult(raw)
}

// buildQuery assembles the FT.SEARCH query string.
func buildQuery(q *db.TextQuery) string {
	var parts []string

	if f := buildFilter(q.Predicate); f != "" {
		parts = append(parts, f)
	}
	if t := buildWeightedText(q.Term, q.Fields, q.Weights); t != "" {
		parts = append(parts, t)
	}

	if len(parts) == 0 {
		return wildcard
	}
	return strings.Join(parts, " ")
}

// buildWeightedText renders (@f1:(term)) => { $weight: w1; } | ... for a
// non-wildcard term. A wildcard term contributes nothing.
func buildWeightedText(term string, fields []string, weights []int) string {
	term = strings.TrimSpace(term)
	if term == "" || term == wildcard || len(fields) == 0 {
		return ""
	}

	escaped := escapeQuery(term)
	groups := make([]string, len(fields))
	for i, f := range fields {
		groups[i] = fmt.Sprintf("(@%s:(%s)) => { $weight: %d; }", f, escaped, weights[i])
	}
	if len(groups) == 1 {
		return groups[0]
	}
	return "(" + strings.Join(groups, " | ") + ")"
}

// --- Result parsing ---

func parseScoredResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/3)
	// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Filter building ---

// buildFilter translates a predicate into FT.SEARCH pre-filter terms.
// Clauses are space-joined, which the query engine treats as intersection.
func buildFilter(p filter.Predicate) string {
	if p.IsEmpty() {
		return ""
	}

	clauses := p.Clauses()
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		parts = append(parts, buildCondition(c))
	}
	return strings.Join(parts, " ")
}

func buildCondition(c filter.Clause) string {
	switch c.Op() {
	case filter.Gte:
		return buildNumericFilter(c.Field(), strconv.Itoa(c.Number()), "+inf")
	case filter.Lte:
		return buildNumericFilter(c.Field(), "-inf", strconv.Itoa(c.Number()))
	case filter.Ne:
		return "-" + buildTagFilter(c.Field(), c.Value())
	default:
		return buildTagFilter(c.Field(), c.Value())
	}
}

func buildTagFilter(key, value string) string {
	escaped := tagEscaper.Replace(value)
	return fmt.Sprintf("@%s:{%s}", key, escaped)
}

func buildNumericFilter(key, minBound, maxBound string) string {
	return fmt.Sprintf("@%s:[%s %s]", key, minBound, maxBound)
}

// --- Query helpers ---

// Characters with meaning inside a tag filter {...} and in a free-text query.
const (
	tagSpecials   = `,.<>{}"':;!@#$%^&*()-+=~ `
	querySpecials = `\'"@{}()|-~*[]!%^$<>=;+`
)

var (
	tagEscaper   = backslashEscaper(tagSpecials)
	queryEscaper = backslashEscaper(querySpecials)
)

func backslashEscaper(specials string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(specials))
	for _, r := range specials {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}
