// Package ledger owns the per-event capacity counters, the roster and the
// waitlist. Every mutation that touches counters and roster together runs in
// a single store transaction; the cached counters are kept honest by the
// reconciler.
package ledger

import (
	"context"
	"time"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/directory"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/logger"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/metrics"
)

const (
	defaultLookupTimeout     = 2 * time.Second
	defaultReconcileInterval = time.Minute
)

// Counts holds the per-gender signup counters of one event.
type Counts struct {
	Men   int `json:"men"`
	Women int `json:"women"`
}

func countsOf(ev models.Event) Counts {
	return Counts{Men: ev.MenSignupCount, Women: ev.WomenSignupCount}
}

// Removal describes a roster entry that has just been deleted.
type Removal struct {
	EventID string
	UserID  string
	Gender  gender.Gender
	// Released is true when the removing transaction already decremented the
	// counter. Otherwise the consumer owns the decrement.
	Released  bool
	RemovedAt time.Time
}

// RemovalListener is told about every roster removal after it commits.
type RemovalListener interface {
	RosterRemoved(ctx context.Context, r Removal)
}

// Directory resolves display fields for roster and waitlist entries.
type Directory interface {
	Lookup(ctx context.Context, userID string) (directory.Entry, error)
}

// Notifier is told, best effort, when a signup bounces off a full partition.
type Notifier interface {
	NotifyCapacityReached(ctx context.Context, ev models.Event, g gender.Gender, userID string) error
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithRetryPolicy(p store.RetryPolicy) Option {
	return func(l *Ledger) { l.retry = p }
}

func WithRemovalListener(rl RemovalListener) Option {
	return func(l *Ledger) { l.removals = rl }
}

// WithDirectory enables display lookups, each bounded by timeout.
func WithDirectory(d Directory, timeout time.Duration) Option {
	return func(l *Ledger) {
		l.directory = d
		if timeout > 0 {
			l.lookupTimeout = timeout
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

func WithLogger(lg logger.Logger) Option {
	return func(l *Ledger) { l.log = lg }
}

func WithMetrics(m *metrics.Manager) Option {
	return func(l *Ledger) { l.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithReconcileInterval sets how often the healer sweeps dirty events.
func WithReconcileInterval(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.healer.interval = d
		}
	}
}

// Ledger implements signup, signout, waitlist and reconciliation.
type Ledger struct {
	store         store.Store
	retry         store.RetryPolicy
	removals      RemovalListener
	directory     Directory
	notifier      Notifier
	lookupTimeout time.Duration
	log           logger.Logger
	metrics       *metrics.Manager
	now           func() time.Time
	healer        *Healer
}

func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:         s,
		retry:         store.DefaultRetryPolicy(),
		lookupTimeout: defaultLookupTimeout,
		log:           logger.Named("ledger"),
		metrics:       metrics.Default(),
		now:           func() time.Time { return time.Now().UTC() },
	}
	l.healer = newHealer(l, defaultReconcileInterval)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Healer returns the background reconciler bound to this ledger.
func (l *Ledger) Healer() *Healer { return l.healer }

func (l *Ledger) transact(ctx context.Context, op string, fn func(tx store.Tx) error) error {
	p := l.retry
	p.OnRetry = func(attempt int, err error) {
		l.metrics.RecordTxRetry(op)
		l.log.Debug(ctx, "retrying transaction", logger.String("operation", op), logger.Int("attempt", attempt), logger.Error(err))
	}
	return store.Transact(ctx, l.store, p, fn)
}

// display resolves denormalised display fields. Lookup failures and timeouts
// only leave the fields at their profile values.
func (l *Ledger) display(ctx context.Context, userID string) (directory.Entry, bool) {
	if l.directory == nil {
		return directory.Entry{}, false
	}
	lookupCtx, cancel := context.WithTimeout(ctx, l.lookupTimeout)
	defer cancel()

	entry, err := l.directory.Lookup(lookupCtx, userID)
	if err != nil {
		l.log.Warn(ctx, "directory lookup failed", logger.String("user_id", userID), logger.Error(err))
		return directory.Entry{}, false
	}
	return entry, true
}

func attendee(p models.UserProfile, g gender.Gender, d directory.Entry, ok bool, at time.Time) models.Attendee {
	a := models.Attendee{
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Gender:      g,
		SignedUpAt:  at,
	}
	if ok {
		if d.DisplayName != "" {
			a.DisplayName = d.DisplayName
		}
		if d.Email != "" {
			a.Email = d.Email
		}
	}
	return a
}

func (l *Ledger) notifyRemoval(ctx context.Context, r Removal) {
	if l.removals == nil {
		return
	}
	l.removals.RosterRemoved(ctx, r)
}

func (l *Ledger) notifyCapacity(ctx context.Context, ev models.Event, g gender.Gender, userID string) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.NotifyCapacityReached(ctx, ev, g, userID); err != nil {
		l.log.Warn(ctx, "capacity notification failed", logger.String("event_id", ev.ID), logger.Error(err))
	}
}
