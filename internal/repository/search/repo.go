package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/selfadvocacy/discovery/internal/db"
	"github.com/selfadvocacy/discovery/internal/domain"
	"github.com/selfadvocacy/discovery/internal/domain/search/hit"
	"github.com/selfadvocacy/discovery/internal/domain/search/query"
	"github.com/selfadvocacy/discovery/internal/metrics"
)

// Indexed document fields surfaced on a hit.
const (
	fieldID        = "id"
	fieldUsername  = "username"
	fieldAge       = "age"
	fieldRegion    = "region"
	fieldAvatarURL = "avatarUrl"
)

var returnFields = []string{fieldID, fieldUsername, fieldAge, fieldRegion, fieldAvatarURL}

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Config names the index a Repo searches.
type Config struct {
	// Index is the FT index name or the HTTP collection name.
	Index string
	// KeyPrefix is stripped from hash keys when a hit carries no id field.
	KeyPrefix string
	// Backend labels metrics ("redis", "typesense").
	Backend string
}

// Repo implements usecase/discovery.SearchIndex on top of a db.Searcher.
type Repo struct {
	store store
	cfg   Config
}

// New creates a search repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// Query sends a compiled query to the index and maps the documents to hits.
// Failures are classified as domain.ErrNetwork or domain.ErrIndex.
func (r *Repo) Query(ctx context.Context, q query.Query) ([]hit.Hit, error) {
	req := q.Request()

	tq := &db.TextQuery{
		IndexName:    r.cfg.Index,
		Term:         req.SearchTerm,
		Fields:       req.FieldsToSearch,
		Weights:      req.FieldWeights,
		Predicate:    q.Predicate(),
		Offset:       (req.Page - 1) * req.ResultLimit,
		Limit:        req.ResultLimit,
		ReturnFields: returnFields,
	}

	start := time.Now()
	sr, err := r.store.SearchText(ctx, tq)
	metrics.IndexRequestDuration.WithLabelValues(r.cfg.Backend).Observe(time.Since(start).Seconds())

	if err != nil {
		err = classify(err)
		if kind := domain.FailureKind(err); kind == "network" || kind == "index" {
			metrics.IndexErrorsTotal.WithLabelValues(r.cfg.Backend, kind).Inc()
		}
		return nil, fmt.Errorf("search %s: %w", r.cfg.Index, err)
	}

	return r.toHits(sr), nil
}

// classify maps store errors onto the domain taxonomy. Cancellation passes through.
func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, db.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrIndex, err)
	}
}

func (r *Repo) toHits(sr *db.SearchResult) []hit.Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	hits := make([]hit.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, r.toHit(e))
	}
	return hits
}

func (r *Repo) toHit(e db.SearchEntry) hit.Hit {
	h := hit.Hit{ID: strings.TrimPrefix(e.Key, r.cfg.KeyPrefix)}
	var extra map[string]string

	for k, v := range e.Fields {
		switch k {
		case fieldID:
			if v != "" {
				h.ID = v
			}
		case fieldUsername:
			h.Username = v
		case fieldAge:
			if n, err := strconv.Atoi(v); err == nil {
				h.Age = n
			}
		case fieldRegion:
			h.Region = v
		case fieldAvatarURL:
			h.AvatarURL = v
		default:
			if extra == nil {
				extra = make(map[string]string)
			}
			extra[k] = v
		}
	}
	h.Extra = extra
	return h
}
