package promotion

import (
	"context"
	"sync"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/ledger"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/logger"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256
)

// OutcomeHook observes every finished promotion run.
type OutcomeHook func(r ledger.Removal, out Outcome, err error)

type DispatcherOption func(*Dispatcher)

func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

func WithOutcomeHook(h OutcomeHook) DispatcherOption {
	return func(d *Dispatcher) { d.hook = h }
}

// Dispatcher queues roster removals and promotes them on a worker pool.
// Removals for the same event may run on different workers; the promotion
// transaction serialises them on the event row.
type Dispatcher struct {
	promoter  *Promoter
	workers   int
	queueSize int
	hook      OutcomeHook
	queue     chan ledger.Removal

	mu       sync.RWMutex
	stopped  bool
	stopping chan struct{}
	stopOnce sync.Once
}

func NewDispatcher(p *Promoter, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		promoter:  p,
		workers:   DefaultWorkers,
		queueSize: DefaultQueueSize,
		stopping:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = make(chan ledger.Removal, d.queueSize)
	return d
}

// RosterRemoved queues r, blocking while the queue is full. The removal is
// detached from ctx, so a caller that goes away cannot drop it. Once Run has
// returned, removals are promoted on the caller's goroutine.
func (d *Dispatcher) RosterRemoved(ctx context.Context, r ledger.Removal) {
	ctx = context.WithoutCancel(ctx)

	queued := false
	d.mu.RLock()
	if !d.stopped {
		select {
		case d.queue <- r:
			queued = true
		case <-d.stopping:
		}
	}
	d.mu.RUnlock()

	if !queued {
		d.promote(ctx, r)
	}
}

// Run starts the workers and blocks until ctx is done and every worker has
// returned. Removals still queued at that point are promoted before Run
// returns.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}
	wg.Wait()

	d.stopOnce.Do(func() { close(d.stopping) })
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.drain(context.WithoutCancel(ctx))
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-d.queue:
			// A promotion that has started runs to completion.
			d.promote(context.WithoutCancel(ctx), r)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	if n := len(d.queue); n > 0 {
		d.promoter.log.Info(ctx, "draining promotion queue", logger.Int("queued", n))
	}
	for {
		select {
		case r := <-d.queue:
			d.promote(ctx, r)
		default:
			return
		}
	}
}

func (d *Dispatcher) promote(ctx context.Context, r ledger.Removal) {
	out, err := d.promoter.Promote(ctx, r)
	if err != nil {
		d.promoter.log.Error(ctx, "promotion failed",
			logger.String("event_id", r.EventID), logger.String("removed_user_id", r.UserID), logger.Error(err))
	}
	if d.hook != nil {
		d.hook(r, out, err)
	}
}
