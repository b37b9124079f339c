package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/selfadvocacy/discovery/internal/db"
)

var _ db.Store = (*Store)(nil)

const readinessPoll = 100 * time.Millisecond

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store is the discovery backend on Redis 8+ with the query engine: profile
// documents, tier cache keys and the FT profile index.
type Store struct {
	client rueidis.Client
}

// NewStore connects via rueidis. Client-side caching is off because every
// read here is either a search or a short-lived cache key.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("at least one redis address is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		// FT.SEARCH and FT.INFO replies are parsed in their RESP2 shape.
		AlwaysRESP2: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}
	return &Store{client: client}, nil
}

// NewStoreForTest wraps an existing client, typically a rueidis mock.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.exec(ctx, db.OpPing, s.client.B().Ping().Build())
	return err
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings until Redis answers or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(readinessPoll)
	defer ticker.Stop()

	var last error
	for {
		if last = s.Ping(ctx); last == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("redis not ready after %s: %w", timeout, last)
		case <-ticker.C:
		}
	}
}

// exec runs one command and wraps a failure as a classified *db.Error.
func (s *Store) exec(ctx context.Context, op string, cmd rueidis.Completed) (rueidis.RedisMessage, error) {
	msg, err := s.client.Do(ctx, cmd).ToMessage()
	if err != nil {
		return msg, &db.Error{Op: op, Err: classify(err)}
	}
	return msg, nil
}

// classify maps a rueidis error onto the db sentinels. Server replies become
// ErrRejected (or a more specific index sentinel) and everything else is a
// transport failure. Context cancellation passes through untouched.
func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case rueidis.IsRedisNil(err):
		return db.ErrKeyNotFound
	}

	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return fmt.Errorf("%w: %w", db.ErrUnavailable, err)
	}
	msg := strings.ToLower(re.Error())
	switch {
	case strings.Contains(msg, "unknown index name"), strings.Contains(msg, "no such index"):
		return fmt.Errorf("%w: %w", db.ErrIndexNotFound, err)
	case strings.Contains(msg, "index already exists"):
		return fmt.Errorf("%w: %w", db.ErrIndexExists, err)
	default:
		return fmt.Errorf("%w: %w", db.ErrRejected, err)
	}
}
