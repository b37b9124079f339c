package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/selfadvocacy/discovery/internal/db"
)

// CreateIndex runs FT.CREATE. An existing index yields db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid index %q: %w", def.Name, err)
	}
	cmd := s.client.B().Arbitrary("FT.CREATE").Args(def.Args()...).Build()
	_, err := s.exec(ctx, db.OpCreateIndex, cmd)
	return err
}

// DropIndex removes an FT index and keeps the indexed hashes.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.client.B().Arbitrary("FT.DROPINDEX").Args(name).Build()
	_, err := s.exec(ctx, db.OpDropIndex, cmd)
	return err
}

// Info reads the document count and backfill state from FT.INFO.
func (s *Store) Info(ctx context.Context, name string) (db.IndexInfo, error) {
	cmd := s.client.B().Arbitrary("FT.INFO").Args(name).Build()
	msg, err := s.exec(ctx, db.OpIndexInfo, cmd)
	if err != nil {
		return db.IndexInfo{}, err
	}

	attrs, err := msg.AsMap()
	if err != nil {
		return db.IndexInfo{}, &db.Error{Op: db.OpIndexInfo, Err: fmt.Errorf("parse reply: %w", err)}
	}
	return db.IndexInfo{
		Name:     name,
		NumDocs:  intAttr(attrs, "num_docs"),
		Indexing: intAttr(attrs, "indexing") != 0,
	}, nil
}

// intAttr reads an FT.INFO number, which arrives as an integer or a string
// depending on the server version. Missing or malformed values read as 0.
func intAttr(attrs map[string]rueidis.RedisMessage, key string) int {
	v, ok := attrs[key]
	if !ok {
		return 0
	}
	if n, err := v.AsInt64(); err == nil {
		return int(n)
	}
	s, err := v.ToString()
	if err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f)
}
