package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selfadvocacy/discovery/internal/domain"
	"github.com/selfadvocacy/discovery/internal/domain/candidate"
	"github.com/selfadvocacy/discovery/internal/domain/criteria"
	"github.com/selfadvocacy/discovery/internal/domain/outcome"
	"github.com/selfadvocacy/discovery/internal/domain/profile"
	"github.com/selfadvocacy/discovery/internal/domain/search/mode"
	"github.com/selfadvocacy/discovery/internal/domain/search/query"
	"github.com/selfadvocacy/discovery/internal/metrics"
)

// DebounceWindow coalesces criteria edits that arrive faster than this.
const DebounceWindow = 400 * time.Millisecond

// maxSkippedPages bounds how far a first search reads past pages that
// reconcile to nothing.
const maxSkippedPages = 5

// Config describes one discovery session.
type Config struct {
	Mode      mode.Mode
	Surface   mode.Surface
	Requester profile.Requester
	Logger    *zap.Logger
}

// Controller owns the search state of one discovery session. It holds at most
// one in-flight search; a newer search, a reset or Close supersedes it and the
// superseded result is never applied.
type Controller struct {
	mode      mode.Mode
	surface   mode.Surface
	requester profile.Requester
	logger    *zap.Logger
	exec      *Executor
	debounce  time.Duration

	ctx  context.Context
	stop context.CancelFunc

	mu         sync.Mutex
	gen        uint64
	outcome    outcome.Outcome
	criteria   criteria.Criteria
	query      query.Query
	candidates []candidate.Candidate
	busy       bool // a search or page load is in flight
	timer      *time.Timer
	changed    chan struct{}
	closed     bool
}

// NewController opens a session. Dating sessions require an entitlement with
// CanAccessDating, otherwise domain.ErrNotEntitled is returned.
func NewController(index SearchIndex, cfg Config) (*Controller, error) {
	if !cfg.Mode.IsValid() {
		return nil, fmt.Errorf("invalid discovery mode %q", cfg.Mode)
	}
	if cfg.Mode == mode.Dating && !cfg.Requester.Entitlement().CanAccessDating {
		return nil, fmt.Errorf("dating discovery for tier %q: %w", cfg.Requester.Tier, domain.ErrNotEntitled)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Controller{
		mode:      cfg.Mode,
		surface:   cfg.Surface,
		requester: cfg.Requester,
		logger:    logger.With(zap.String("mode", string(cfg.Mode)), zap.String("requester", cfg.Requester.ID)),
		exec:      NewExecutor(index),
		debounce:  DebounceWindow,
		ctx:       ctx,
		stop:      stop,
		outcome:   outcome.Idle(),
		criteria:  criteria.Default(),
		changed:   make(chan struct{}),
	}, nil
}

// Mode returns the session mode.
func (c *Controller) Mode() mode.Mode { return c.mode }

// Outcome returns the current search state.
func (c *Controller) Outcome() outcome.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Criteria returns the criteria of the latest search or schedule.
func (c *Controller) Criteria() criteria.Criteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criteria
}

// IssueSearch starts a search immediately, superseding any pending or in-flight one.
func (c *Controller) IssueSearch(cr criteria.Criteria) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopTimerLocked()
	c.startLocked(cr)
}

// ScheduleSearch records cr and starts a search once no further edits arrive
// within the debounce window.
func (c *Controller) ScheduleSearch(cr criteria.Criteria) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.criteria = cr
	c.stopTimerLocked()
	c.gen++ // pending edit supersedes whatever is in flight
	c.exec.Cancel()
	gen := c.gen
	c.busy = true
	c.timer = time.AfterFunc(c.debounce, func() { c.fireScheduled(gen) })
	c.notifyLocked()
}

func (c *Controller) fireScheduled(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return
	}
	c.timer = nil
	c.startLocked(c.criteria)
}

// LoadMore fetches the next page of the current successful search and appends
// unseen candidates. It reports false when there is nothing to load.
func (c *Controller) LoadMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.busy || c.outcome.State() != outcome.StateSuccess || c.outcome.Exhausted() {
		return false
	}

	c.gen++
	gen := c.gen
	next := c.query.WithPage(c.outcome.Page() + 1)
	c.busy = true
	c.notifyLocked()

	go c.run(gen, c.exec.Begin(c.ctx), next)
	return true
}

// Reset cancels pending and in-flight work and returns the session to Idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Close resets the session and releases it. Later calls are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.resetLocked()
	c.closed = true
	c.stop()
}

// Wait blocks until no search is pending or in flight, then returns the outcome.
func (c *Controller) Wait(ctx context.Context) (outcome.Outcome, error) {
	for {
		c.mu.Lock()
		if !c.busy || c.closed {
			o := c.outcome
			c.mu.Unlock()
			return o, nil
		}
		ch := c.changed
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return c.Outcome(), ctx.Err()
		}
	}
}

func (c *Controller) resetLocked() {
	c.stopTimerLocked()
	c.gen++
	c.exec.Cancel()
	c.busy = false
	c.outcome = outcome.Idle()
	c.criteria = criteria.Default()
	c.query = query.Query{}
	c.candidates = nil
	c.notifyLocked()
}

// startLocked compiles cr and launches page one. Compile failures settle the
// session as Failed without touching the index.
func (c *Controller) startLocked(cr criteria.Criteria) {
	c.gen++
	gen := c.gen
	c.criteria = cr
	c.candidates = nil

	q, err := Compile(cr, c.requester, c.mode, c.surface)
	if err != nil {
		c.exec.Cancel()
		c.busy = false
		c.outcome = outcome.Failed(err)
		c.recordLocked(err)
		c.notifyLocked()
		return
	}

	c.query = q
	c.busy = true
	c.outcome = outcome.Loading()
	c.notifyLocked()

	go c.run(gen, c.exec.Begin(c.ctx), q)
}

// run executes a call claimed under c.mu. Every supersession bumps c.gen, so
// a result applies only if its generation is still current.
func (c *Controller) run(gen uint64, call *Call, q query.Query) {
	hits, err := call.Run(q)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		metrics.SupersededTotal.WithLabelValues(string(c.mode)).Inc()
		return
	}
	c.busy = false
	defer c.notifyLocked()

	if err != nil {
		c.outcome = outcome.Failed(err)
		c.recordLocked(err)
		return
	}

	exhausted := len(hits) < q.Limit()

	if c.outcome.State() != outcome.StateSuccess {
		cs, reason := Reconcile(hits, c.requester.ID)
		// A full first page holding only the requester or repeats: read on.
		if reason != "" && !exhausted && q.Page() < maxSkippedPages {
			c.busy = true
			go c.run(gen, c.exec.Begin(c.ctx), q.WithPage(q.Page()+1))
			return
		}
		if reason != "" {
			c.outcome = outcome.Empty(reason)
		} else {
			c.candidates = cs
			c.outcome = outcome.Success(cs, q.Page(), exhausted)
		}
		c.recordLocked(nil)
		return
	}

	before := len(c.candidates)
	c.candidates = appendCandidates(c.candidates, hits, c.requester.ID)
	page := q.Page()
	if len(c.candidates) == before {
		page = c.outcome.Page()
		exhausted = true
	}
	c.outcome = outcome.Success(c.candidates, page, exhausted)
}

func (c *Controller) recordLocked(err error) {
	state := c.outcome.State()
	metrics.SearchesTotal.WithLabelValues(string(c.mode), string(state)).Inc()

	if err == nil {
		c.logger.Debug("Discovery search settled", zap.String("state", string(state)))
		return
	}
	c.logger.Info("Discovery search failed",
		zap.String("kind", domain.FailureKind(err)),
		zap.Error(err),
	)
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// notifyLocked wakes Wait callers.
func (c *Controller) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}
