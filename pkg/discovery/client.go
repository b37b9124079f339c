package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbRedis "github.com/selfadvocacy/discovery/internal/db/redis"
	"github.com/selfadvocacy/discovery/internal/db/typesense"
	"github.com/selfadvocacy/discovery/internal/domain/search/mode"
	"github.com/selfadvocacy/discovery/internal/repository/profileindex"
	searchrepo "github.com/selfadvocacy/discovery/internal/repository/search"
	discoveryuc "github.com/selfadvocacy/discovery/internal/usecase/discovery"
	healthuc "github.com/selfadvocacy/discovery/internal/usecase/health"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultRequestTimeout   = 5 * time.Second
	defaultTypesenseIndex   = "profiles"
)

// Internal interfaces for substitution in tests.
type sessionRegistry interface {
	Open(ctx context.Context, userID string, m mode.Mode, s mode.Surface) (*discoveryuc.Controller, error)
	Close(userID string, m mode.Mode) bool
	Sweep() int
	Len() int
	CloseAll()
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// searchBackend is the index a client searches plus its health check.
type searchBackend interface {
	discoveryuc.SearchIndex
	healthuc.Pinger
}

// Client is the embedded discovery entry point. It is safe for concurrent use.
type Client struct {
	registry  sessionRegistry
	healthSvc healthUseCase
	surface   mode.Surface
	closeFn   func()
	obs       *observer
}

// New connects to the configured index and returns a Client.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.profiles == nil {
		return nil, errors.New("discovery: profile store required (use WithProfiles)")
	}

	backend, closeFn, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		closeFn()
		return nil, err
	}
	return wireClient(backend, closeFn, cfg, obs), nil
}

// connect builds the search backend named by cfg.
func connect(ctx context.Context, cfg *clientConfig) (searchBackend, func(), error) {
	if cfg.typesenseURL != "" {
		timeout := cfg.timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		ts, err := typesense.NewClient(typesense.Config{
			BaseURL: cfg.typesenseURL,
			APIKey:  cfg.typesenseKey,
			Timeout: timeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("discovery: create typesense client: %w", err)
		}
		index := cfg.index
		if index == "" {
			index = defaultTypesenseIndex
		}
		repo := searchrepo.New(ts, searchrepo.Config{Index: index, Backend: "typesense"})
		return pingingIndex{SearchIndex: repo, Pinger: ts}, func() {}, nil
	}

	if len(cfg.addrs) == 0 {
		return nil, nil, errors.New("discovery: index address required (use WithRedis or WithTypesense)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("discovery: create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("discovery: index not ready: %w", err)
	}

	index, prefix := cfg.index, cfg.keyPrefix
	if index == "" {
		index = profileindex.DefaultIndex
	}
	if prefix == "" {
		prefix = profileindex.DefaultKeyPrefix
	}
	repo := searchrepo.New(store, searchrepo.Config{Index: index, KeyPrefix: prefix, Backend: "redis"})
	return pingingIndex{SearchIndex: repo, Pinger: store}, store.Close, nil
}

type pingingIndex struct {
	discoveryuc.SearchIndex
	healthuc.Pinger
}

func wireClient(backend searchBackend, closeFn func(), cfg *clientConfig, obs *observer) *Client {
	profiles := &profileAdapter{inner: cfg.profiles}

	surface := mode.Surface(cfg.surface)
	if surface != mode.Web {
		surface = mode.Mobile
	}

	registry := discoveryuc.NewRegistry(discoveryuc.RegistryConfig{
		Index:       backend,
		Profiles:    profiles,
		IdleTimeout: cfg.idleTimeout,
		Logger:      sessionLogger(cfg.logger),
	})

	return &Client{
		registry:  registry,
		healthSvc: healthuc.New(backend, profiles, nil),
		surface:   surface,
		closeFn:   closeFn,
		obs:       obs,
	}
}

// Close ends every session and releases the index connection.
func (c *Client) Close() {
	c.registry.CloseAll()
	if c.closeFn != nil {
		c.closeFn()
	}
}

// Open returns the requester's session for m, creating it on first use.
// Opening a dating session requires the dating subscription (ErrNotEntitled).
func (c *Client) Open(ctx context.Context, userID string, m Mode) (s *Session, err error) {
	start := time.Now()
	defer func() { c.obs.observe("open", start, err) }()

	dm, ok := mode.Parse(string(m))
	if !ok {
		return nil, fmt.Errorf("discovery: unknown mode %q", m)
	}
	ctrl, err := c.registry.Open(ctx, userID, dm, c.surface)
	if err != nil {
		return nil, fmt.Errorf("open %s session: %w", dm, err)
	}
	return &Session{ctrl: ctrl, obs: c.obs}, nil
}

// CloseSession discards a requester's session. It reports whether one was open.
func (c *Client) CloseSession(userID string, m Mode) bool {
	dm, ok := mode.Parse(string(m))
	if !ok {
		return false
	}
	return c.registry.Close(userID, dm)
}

// Sweep closes sessions idle longer than the idle timeout and returns how many.
func (c *Client) Sweep() int {
	return c.registry.Sweep()
}

// Sessions returns the number of open sessions.
func (c *Client) Sessions() int {
	return c.registry.Len()
}
