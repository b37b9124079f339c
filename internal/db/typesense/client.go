// Package typesense implements db.Searcher against a Typesense-compatible
// HTTP search API.
package typesense

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/selfadvocacy/discovery/internal/db"
	"github.com/selfadvocacy/discovery/internal/domain/search/filter"
)

// Compile-time check: Client implements db.Searcher.
var _ db.Searcher = (*Client)(nil)

const (
	apiKeyHeader   = "X-TYPESENSE-API-KEY"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// Config holds connection parameters for the HTTP index.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client is a minimal search-only client for the Typesense HTTP API.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
}

// NewClient validates cfg and creates a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{baseURL: u, apiKey: cfg.APIKey, http: hc}, nil
}

// Ping checks connectivity via GET /health.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String()+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health: status %d", resp.StatusCode)
	}
	return nil
}

// SearchText runs GET /collections/{IndexName}/documents/search.
func (c *Client) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, errors.New("collection name is required")
	}
	if q.Limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	if len(q.Fields) == 0 {
		return nil, errors.New("at least one query_by field is required")
	}
	if len(q.Fields) != len(q.Weights) {
		return nil, fmt.Errorf("fields and weights length mismatch: %d != %d", len(q.Fields), len(q.Weights))
	}

	endpoint := c.baseURL.JoinPath("collections", q.IndexName, "documents", "search")
	endpoint.RawQuery = searchParams(q).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, &db.Error{Op: db.OpHTTPSearch, Err: fmt.Errorf("%w: %w", db.ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &db.Error{Op: db.OpHTTPSearch, Err: statusError(resp)}
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &db.Error{Op: db.OpHTTPSearch, Err: fmt.Errorf("%w: decode response: %w", db.ErrRejected, err)}
	}

	return body.toResult(), nil
}

// searchParams maps a TextQuery onto Typesense search parameters.
func searchParams(q *db.TextQuery) url.Values {
	v := url.Values{}
	v.Set("q", q.Term)
	v.Set("query_by", strings.Join(q.Fields, ","))

	weights := make([]string, len(q.Weights))
	for i, w := range q.Weights {
		weights[i] = strconv.Itoa(w)
	}
	v.Set("query_by_weights", strings.Join(weights, ","))

	if f := buildFilterBy(q.Predicate); f != "" {
		v.Set("filter_by", f)
	}
	if len(q.ReturnFields) > 0 {
		v.Set("include_fields", strings.Join(q.ReturnFields, ","))
	}

	// Typesense pages are 1-based and sized by per_page.
	v.Set("per_page", strconv.Itoa(q.Limit))
	v.Set("page", strconv.Itoa(max(q.Offset, 0)/q.Limit+1))
	return v
}

// buildFilterBy renders a predicate in filter_by syntax: age_sort:>=18 && id:!=u1.
func buildFilterBy(p filter.Predicate) string {
	if p.IsEmpty() {
		return ""
	}
	clauses := p.Clauses()
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		switch c.Op() {
		case filter.Gte, filter.Lte:
			parts[i] = c.Field() + ":" + string(c.Op()) + strconv.Itoa(c.Number())
		case filter.Ne:
			parts[i] = c.Field() + ":!=" + filter.Quote(c.Value())
		default:
			parts[i] = c.Field() + ":=" + filter.Quote(c.Value())
		}
	}
	return strings.Join(parts, " && ")
}

// statusError classifies a non-200 response. Gateway failures mean the index
// could not be reached; anything else is the index refusing the request.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := strings.TrimSpace(string(raw))
	var parsed struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &parsed) == nil && parsed.Message != "" {
		msg = parsed.Message
	}

	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d: %s", db.ErrUnavailable, resp.StatusCode, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", db.ErrRejected, resp.StatusCode, msg)
	}
}
