package redis

import (
	"context"
	"time"

	"github.com/selfadvocacy/discovery/internal/db"
)

// Get returns the value at key or db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	msg, err := s.exec(ctx, db.OpGet, s.client.B().Get().Key(key).Build())
	if err != nil {
		return nil, err
	}
	data, err := msg.AsBytes()
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// SetWithTTL stores value at key with an expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := s.client.B().Set().Key(key).Value(string(value)).Ex(ttl).Build()
	_, err := s.exec(ctx, db.OpSet, cmd)
	return err
}

// Del removes key. A key that did not exist yields db.ErrKeyNotFound.
func (s *Store) Del(ctx context.Context, key string) error {
	msg, err := s.exec(ctx, db.OpDel, s.client.B().Del().Key(key).Build())
	if err != nil {
		return err
	}
	if n, err := msg.AsInt64(); err == nil && n == 0 {
		return db.ErrKeyNotFound
	}
	return nil
}
