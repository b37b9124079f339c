package typesense

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/selfadvocacy/discovery/internal/db"
)

type searchResponse struct {
	Found int         `json:"found"`
	Hits  []searchHit `json:"hits"`
}

type searchHit struct {
	Document  map[string]json.RawMessage `json:"document"`
	TextMatch float64                    `json:"text_match"`
}

func (r *searchResponse) toResult() *db.SearchResult {
	entries := make([]db.SearchEntry, 0, len(r.Hits))
	for _, h := range r.Hits {
		fields := make(map[string]string, len(h.Document))
		for k, raw := range h.Document {
			fields[k] = flatten(raw)
		}
		entries = append(entries, db.SearchEntry{
			Key:    fields["id"],
			Score:  h.TextMatch,
			Fields: fields,
		})
	}
	return &db.SearchResult{Total: r.Found, Entries: entries}
}

// flatten renders a JSON document value as a string field.
// Arrays become comma-separated; null becomes empty.
func flatten(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}

	var arr []json.RawMessage
	if json.Unmarshal(raw, &arr) == nil {
		parts := make([]string, len(arr))
		for i, v := range arr {
			parts[i] = flatten(v)
		}
		return strings.Join(parts, ",")
	}

	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return strconv.FormatBool(b)
	}

	return ""
}
