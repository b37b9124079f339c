package discovery

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	typesenseURL string
	typesenseKey string
	timeout      time.Duration

	index     string
	keyPrefix string

	profiles    ProfileStore
	surface     Surface
	idleTimeout time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis searches the Redis/Valkey FT index at addr.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithTypesense searches a Typesense collection instead of a Redis index.
func WithTypesense(baseURL, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.typesenseURL = baseURL
		c.typesenseKey = apiKey
	})
}

// WithIndex overrides the index (or collection) name and the hash key prefix.
// Defaults: discovery:profiles:idx and discovery:profile:.
func WithIndex(name, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
		c.keyPrefix = keyPrefix
	})
}

// WithRequestTimeout bounds a single Typesense request. Default: 5s.
func WithRequestTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithProfiles sets the requester profile store. Required.
func WithProfiles(p ProfileStore) Option {
	return optionFunc(func(c *clientConfig) {
		c.profiles = p
	})
}

// WithSurface sets the page size surface for new sessions. Default: mobile.
func WithSurface(s Surface) Option {
	return optionFunc(func(c *clientConfig) {
		c.surface = s
	})
}

// WithIdleTimeout closes sessions untouched for d on the next Sweep.
// Default: 15 minutes.
func WithIdleTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.idleTimeout = d
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
