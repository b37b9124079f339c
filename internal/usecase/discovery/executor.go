package discovery

import (
	"context"
	"sync"

	"github.com/selfadvocacy/discovery/internal/domain"
	"github.com/selfadvocacy/discovery/internal/domain/search/hit"
	"github.com/selfadvocacy/discovery/internal/domain/search/query"
)

// Executor sends queries to the index with last-request-wins semantics:
// claiming a call cancels the previous one, and a superseded call reports
// domain.ErrSuperseded whatever the index eventually answered.
type Executor struct {
	index SearchIndex

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Call is a claimed execution slot. Only the most recently claimed call is current.
type Call struct {
	e      *Executor
	parent context.Context
	ctx    context.Context
	seq    uint64
}

// NewExecutor creates an executor over index.
func NewExecutor(index SearchIndex) *Executor {
	return &Executor{index: index}
}

// Begin claims the executor for a new call and supersedes the previous one.
// Ordering between calls is fixed here, not when Run is scheduled.
func (e *Executor) Begin(ctx context.Context) *Call {
	callCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
	e.seq++
	e.cancel = cancel
	return &Call{e: e, parent: ctx, ctx: callCtx, seq: e.seq}
}

// Execute claims a call and runs q on it.
func (e *Executor) Execute(ctx context.Context, q query.Query) ([]hit.Hit, error) {
	return e.Begin(ctx).Run(q)
}

// Run sends q to the index. Failures are returned as classified by the index
// and are never retried. A call superseded before it starts skips the index.
func (c *Call) Run(q query.Query) ([]hit.Hit, error) {
	if !c.current() {
		return nil, domain.ErrSuperseded
	}

	hits, err := c.e.index.Query(c.ctx, q)

	if !c.finish() {
		return nil, domain.ErrSuperseded
	}
	if err != nil {
		if ctxErr := c.parent.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return hits, nil
}

func (c *Call) current() bool {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	return c.seq == c.e.seq
}

// finish releases the slot if c still holds it and reports whether it did.
func (c *Call) finish() bool {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	if c.seq != c.e.seq {
		return false
	}
	if c.e.cancel != nil {
		c.e.cancel()
		c.e.cancel = nil
	}
	return true
}

// Cancel supersedes the in-flight call, if any, without starting a new one.
func (e *Executor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.seq++
}
