package db

import (
	"context"
	"time"
)

// Store is everything the redis backend offers discovery: profile documents,
// the tier cache keyspace and the FT index over the documents.
//
//nolint:interfacebloat // consumers depend on the narrow interfaces below
type Store interface {
	Pinger
	DocumentWriter
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Document is one hash in the indexed keyspace.
type Document struct {
	Key    string
	Fields map[string]string
}

// DocumentWriter replaces and removes indexed documents.
type DocumentWriter interface {
	// ReplaceDocuments overwrites each document as a whole, so fields absent
	// from the new version do not survive from the old one.
	ReplaceDocuments(ctx context.Context, docs []Document) error
	Del(ctx context.Context, key string) error
}

// KVStore provides plain string keys with expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// IndexInfo is the part of FT.INFO discovery reports on.
type IndexInfo struct {
	Name     string
	NumDocs  int
	Indexing bool
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	// Info returns ErrIndexNotFound when the index does not exist.
	Info(ctx context.Context, name string) (IndexInfo, error)
}

// Searcher runs weighted full-text searches over an index.
type Searcher interface {
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
}
