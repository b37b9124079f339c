package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selfadvocacy/discovery/internal/domain/search/mode"
	"github.com/selfadvocacy/discovery/internal/metrics"
)

// DefaultIdleTimeout closes sessions nobody touched for this long.
const DefaultIdleTimeout = 15 * time.Minute

// RegistryConfig wires a Registry.
type RegistryConfig struct {
	Index       SearchIndex
	Profiles    ProfileReader
	Tiers       TierReader // optional; the profile's stored tier is used when nil
	IdleTimeout time.Duration
	Logger      *zap.Logger
}

type sessionKey struct {
	userID string
	mode   mode.Mode
}

type session struct {
	ctrl     *Controller
	lastUsed time.Time
}

// Registry keeps one Controller per (user, mode).
type Registry struct {
	index    SearchIndex
	profiles ProfileReader
	tiers    TierReader
	idle     time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[sessionKey]*session
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		index:    cfg.Index,
		profiles: cfg.Profiles,
		tiers:    cfg.Tiers,
		idle:     idle,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[sessionKey]*session),
	}
}

// Open returns the user's session for m, creating it on first use. Creation
// loads the requester profile and its current cached tier, then applies the
// dating entry gate (domain.ErrNotEntitled).
func (r *Registry) Open(ctx context.Context, userID string, m mode.Mode, s mode.Surface) (*Controller, error) {
	key := sessionKey{userID: userID, mode: m}

	if ctrl, ok := r.Get(userID, m); ok {
		return ctrl, nil
	}

	p, err := r.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load requester: %w", err)
	}
	requester := p.Requester()
	if r.tiers != nil {
		tier, err := r.tiers.Tier(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load tier: %w", err)
		}
		requester.Tier = tier
	}

	ctrl, err := NewController(r.index, Config{
		Mode:      m,
		Surface:   s,
		Requester: requester,
		Logger:    r.logger,
	})
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[key]; ok {
		// lost a race with a concurrent Open
		ctrl.Close()
		existing.lastUsed = r.now()
		return existing.ctrl, nil
	}
	r.sessions[key] = &session{ctrl: ctrl, lastUsed: r.now()}
	metrics.ActiveSessions.Inc()
	return ctrl, nil
}

// Get returns an open session and marks it used.
func (r *Registry) Get(userID string, m mode.Mode) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionKey{userID: userID, mode: m}]
	if !ok {
		return nil, false
	}
	s.lastUsed = r.now()
	return s.ctrl, true
}

// Close discards a session. It reports whether one was open.
func (r *Registry) Close(userID string, m mode.Mode) bool {
	r.mu.Lock()
	key := sessionKey{userID: userID, mode: m}
	s, ok := r.sessions[key]
	if ok {
		delete(r.sessions, key)
		metrics.ActiveSessions.Dec()
	}
	r.mu.Unlock()

	if ok {
		s.ctrl.Close()
	}
	return ok
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the idle timeout and returns how many.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	var stale []*Controller
	for key, s := range r.sessions {
		if s.lastUsed.Before(cutoff) {
			stale = append(stale, s.ctrl)
			delete(r.sessions, key)
			metrics.ActiveSessions.Dec()
		}
	}
	r.mu.Unlock()

	for _, ctrl := range stale {
		ctrl.Close()
	}
	if len(stale) > 0 {
		r.logger.Debug("Swept idle discovery sessions", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// Run sweeps idle sessions every interval until ctx is done, then closes all sessions.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// CloseAll discards every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[sessionKey]*session)
	metrics.ActiveSessions.Sub(float64(len(all)))
	r.mu.Unlock()

	for _, s := range all {
		s.ctrl.Close()
	}
}
