package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pedalgate/internal/optimizer/metrics"
)

const defaultWriteTimeout = 5 * time.Second

// Persister writes audit rows without ever failing the caller. In async mode
// rows are queued on a bounded buffer drained by one worker; when the buffer
// is full the row is dropped with a warning.
type Persister struct {
	store        Store
	logger       *slog.Logger
	metrics      *metrics.Metrics
	writeTimeout time.Duration
	now          func() time.Time

	bufferSize int
	queue      chan job
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
}

type job struct {
	kind     string
	traceID  string
	run      Run
	decision Decision
}

// Option configures a Persister.
type Option func(*Persister)

// WithAsyncBuffer enables async mode with a buffer of size n. Zero keeps
// writes synchronous.
func WithAsyncBuffer(n int) Option {
	return func(p *Persister) {
		if n > 0 {
			p.bufferSize = n
		}
	}
}

// WithMetrics attaches audit write metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Persister) {
		p.metrics = m
	}
}

// WithWriteTimeout bounds each store write.
func WithWriteTimeout(d time.Duration) Option {
	return func(p *Persister) {
		if d > 0 {
			p.writeTimeout = d
		}
	}
}

// WithClock overrides the row timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Persister) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPersister creates a Persister on store.
func NewPersister(store Store, logger *slog.Logger, opts ...Option) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Persister{
		store:        store,
		logger:       logger,
		writeTimeout: defaultWriteTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.queue = make(chan job, p.bufferSize)
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// RecordRun persists run. It assigns the id and timestamp when unset.
func (p *Persister) RecordRun(ctx context.Context, run Run) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = p.now()
	}
	p.submit(ctx, job{kind: kindRun, traceID: run.TraceID, run: run})
}

// RecordDecision persists decision. It assigns the id and timestamp when unset.
func (p *Persister) RecordDecision(ctx context.Context, decision Decision) {
	if decision.ID == uuid.Nil {
		decision.ID = uuid.New()
	}
	if decision.CreatedAt.IsZero() {
		decision.CreatedAt = p.now()
	}
	p.submit(ctx, job{kind: kindDecision, traceID: decision.TraceID, decision: decision})
}

func (p *Persister) submit(ctx context.Context, j job) {
	if p.queue == nil {
		p.write(context.WithoutCancel(ctx), j)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.WarnContext(ctx, "audit persister closed, dropping row",
			"kind", j.kind,
			"trace_id", j.traceID,
		)
		p.metrics.IncrementAuditDropped()
		return
	}
	select {
	case p.queue <- j:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping row",
			"kind", j.kind,
			"trace_id", j.traceID,
		)
		p.metrics.IncrementAuditDropped()
	}
}

func (p *Persister) drain() {
	defer p.wg.Done()
	for j := range p.queue {
		p.write(context.Background(), j)
	}
}

func (p *Persister) write(ctx context.Context, j job) {
	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	var err error
	switch j.kind {
	case kindRun:
		err = p.store.InsertRun(ctx, j.run)
	case kindDecision:
		err = p.store.InsertDecision(ctx, j.decision)
	}
	p.metrics.IncrementAuditWrite(j.kind, err)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to persist optimizer audit row",
			"kind", j.kind,
			"trace_id", j.traceID,
			"error", err,
		)
	}
}

// Close stops accepting rows and waits for queued rows to be written. It is
// safe to call more than once.
func (p *Persister) Close() {
	if p.queue == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}
