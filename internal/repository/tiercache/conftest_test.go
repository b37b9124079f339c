package tiercache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/selfadvocacy/discovery/internal/db"
	"github.com/selfadvocacy/discovery/internal/domain/entitlement"
)

type mockSource struct {
	tier  entitlement.Tier
	err   error
	calls int
}

func (m *mockSource) Tier(_ context.Context, _ string) (entitlement.Tier, error) {
	m.calls++
	return m.tier, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	delFn func(ctx context.Context, key string) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockKVStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func newTestCache(t *testing.T, src *mockSource) (*Cache, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(src, ms, 0, nil, zap.NewNop()), ms
}
