// Package promotion moves the earliest waiting user of the vacated gender
// partition onto the roster when a roster entry is removed.
package promotion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/ledger"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/logger"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/metrics"
)

// DefaultScanLimit bounds the case-insensitive fallback scan.
const DefaultScanLimit = 25

// State is the terminal state of one promotion run.
type State string

const (
	NoSpot               State = "no_spot"
	NoCandidate          State = "no_candidate"
	Promoted             State = "promoted"
	PromotedMirrorFailed State = "promoted_mirror_failed"
)

// Outcome reports what a promotion run did.
type Outcome struct {
	EventID string              `json:"event_id"`
	Gender  gender.Gender       `json:"gender"`
	State   State               `json:"state"`
	Entry   *models.RosterEntry `json:"entry,omitempty"`
	Counts  ledger.Counts       `json:"counts"`
}

// Code maps the outcome onto the caller-facing result codes.
func (o Outcome) Code() ledger.Code {
	if o.State == Promoted || o.State == PromotedMirrorFailed {
		return ledger.Accepted
	}
	return ledger.NoOp
}

// Notifier is told about committed promotions, best effort.
type Notifier interface {
	NotifyPromotion(ctx context.Context, ev models.Event, entry models.RosterEntry) error
}

type Option func(*Promoter)

func WithRetryPolicy(p store.RetryPolicy) Option {
	return func(pr *Promoter) { pr.retry = p }
}

func WithScanLimit(n int) Option {
	return func(pr *Promoter) {
		if n > 0 {
			pr.scanLimit = n
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(pr *Promoter) { pr.notifier = n }
}

func WithLogger(lg logger.Logger) Option {
	return func(pr *Promoter) { pr.log = lg }
}

func WithMetrics(m *metrics.Manager) Option {
	return func(pr *Promoter) { pr.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(pr *Promoter) { pr.now = now }
}

// Promoter runs the promotion protocol. It implements
// ledger.RemovalListener synchronously; wrap it in a Dispatcher to run
// promotions off the caller's goroutine.
type Promoter struct {
	store     store.Store
	retry     store.RetryPolicy
	scanLimit int
	notifier  Notifier
	log       logger.Logger
	metrics   *metrics.Manager
	now       func() time.Time
}

func New(s store.Store, opts ...Option) *Promoter {
	p := &Promoter{
		store:     s,
		retry:     store.DefaultRetryPolicy(),
		scanLimit: DefaultScanLimit,
		log:       logger.Named("promotion"),
		metrics:   metrics.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RosterRemoved promotes synchronously and logs failures.
func (p *Promoter) RosterRemoved(ctx context.Context, r ledger.Removal) {
	if _, err := p.Promote(ctx, r); err != nil {
		p.log.Error(ctx, "promotion failed",
			logger.String("event_id", r.EventID), logger.String("removed_user_id", r.UserID), logger.Error(err))
	}
}

// Promote fills the slot released by r with the earliest waiting user of the
// same gender. Capacity check, candidate selection and every write happen in
// one transaction; the latest-event mirror is written after commit and its
// failure only changes the reported state.
func (p *Promoter) Promote(ctx context.Context, r ledger.Removal) (Outcome, error) {
	g, err := p.resolveGender(ctx, r)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{EventID: r.EventID, Gender: g}

	var ev models.Event
	err = p.transact(ctx, func(tx store.Tx) error {
		out.State, out.Entry = "", nil

		var err error
		ev, err = tx.Event(ctx, r.EventID)
		if err != nil {
			return err
		}
		spots, partitioned := ev.Spots(g)
		if !partitioned {
			out.State = NoSpot
			out.Counts = ledger.Counts{Men: ev.MenSignupCount, Women: ev.WomenSignupCount}
			return nil
		}

		afterRemoval := ev.Count(g)
		if !r.Released {
			// The entry is already gone, so the roster holds the settled
			// count even if the healer got there first.
			men, women, err := tx.CountRoster(ctx, r.EventID)
			if err != nil {
				return err
			}
			afterRemoval = models.Event{MenSignupCount: men, WomenSignupCount: women}.Count(g)
		}
		settled := ev.WithCount(g, afterRemoval)

		if spots-afterRemoval <= 0 {
			out.State = NoSpot
			return p.settle(ctx, tx, ev, settled, &out)
		}

		candidate, charged, err := p.selectCandidate(ctx, tx, r.EventID, g)
		if err != nil {
			return err
		}
		if candidate == nil {
			out.State = NoCandidate
			return p.settle(ctx, tx, ev, settled, &out)
		}
		onRoster, err := tx.RosterEntry(ctx, r.EventID, candidate.UserID)
		if err != nil {
			return err
		}

		// Reads are done; writes follow.
		if onRoster != nil {
			// Stale queue entry for someone already admitted.
			if err := tx.DeleteWaitlistEntry(ctx, r.EventID, candidate.UserID); err != nil {
				return err
			}
			out.State = NoCandidate
			return p.settle(ctx, tx, ev, settled, &out)
		}

		entry := &models.RosterEntry{
			EventID:  r.EventID,
			UserID:   candidate.UserID,
			Attendee: candidate.Attendee,
		}
		entry.Gender = g
		entry.SignedUpAt = p.now()
		if err := tx.InsertRosterEntry(ctx, entry); err != nil {
			return err
		}
		promoted := settled.WithCount(g, afterRemoval+1)
		if err := tx.SetCounts(ctx, r.EventID, promoted.MenSignupCount, promoted.WomenSignupCount); err != nil {
			return err
		}
		if err := tx.DeleteWaitlistEntry(ctx, r.EventID, candidate.UserID); err != nil {
			return err
		}
		if charged {
			if err := tx.AdjustCredits(ctx, candidate.UserID, -1); err != nil {
				return err
			}
		}
		out.State = Promoted
		out.Entry = entry
		out.Counts = ledger.Counts{Men: promoted.MenSignupCount, Women: promoted.WomenSignupCount}
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("promote on %s: %w", r.EventID, err)
	}

	if out.State == Promoted {
		if err := p.mirror(ctx, ev, *out.Entry); err != nil {
			out.State = PromotedMirrorFailed
			p.log.Warn(ctx, "latest-event mirror failed",
				logger.String("event_id", r.EventID), logger.String("user_id", out.Entry.UserID), logger.Error(err))
		}
		p.notify(ctx, ev, *out.Entry)
		p.log.Info(ctx, "waitlisted user promoted",
			logger.String("event_id", r.EventID), logger.String("user_id", out.Entry.UserID), logger.String("gender", g.String()))
	} else {
		p.log.Debug(ctx, "no promotion", logger.String("event_id", r.EventID), logger.String("state", string(out.State)))
	}
	p.metrics.RecordPromotion(string(out.State))
	return out, nil
}

// settle writes the deferred decrement for removals that did not release
// their own slot.
func (p *Promoter) settle(ctx context.Context, tx store.Tx, ev, settled models.Event, out *Outcome) error {
	out.Counts = ledger.Counts{Men: settled.MenSignupCount, Women: settled.WomenSignupCount}
	if settled.MenSignupCount == ev.MenSignupCount && settled.WomenSignupCount == ev.WomenSignupCount {
		return nil
	}
	return tx.SetCounts(ctx, ev.ID, settled.MenSignupCount, settled.WomenSignupCount)
}

// selectCandidate returns the earliest entry of partition g whose holder can
// pay for the seat, trying the entries stored with exactly g first and then a
// bounded scan that compares genders after normalisation. Holders without a
// capacity profile are admitted uncharged; holders out of credits are skipped
// and stay queued. charged reports whether the seat costs a credit.
func (p *Promoter) selectCandidate(ctx context.Context, tx store.Tx, eventID string, g gender.Gender) (entry *models.WaitlistEntry, charged bool, err error) {
	first, err := tx.FirstWaitlisted(ctx, eventID, g)
	if err != nil {
		return nil, false, err
	}
	if first != nil {
		ok, charged, err := p.canPay(ctx, tx, eventID, first.UserID)
		if err != nil || ok {
			return first, charged, err
		}
	}

	earliest, err := tx.EarliestWaitlisted(ctx, eventID, p.scanLimit)
	if err != nil {
		return nil, false, err
	}
	for i := range earliest {
		if gender.Normalize(earliest[i].Gender) != g {
			continue
		}
		if first != nil && earliest[i].UserID == first.UserID {
			continue
		}
		ok, charged, err := p.canPay(ctx, tx, eventID, earliest[i].UserID)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return &earliest[i], charged, nil
		}
	}
	return nil, false, nil
}

func (p *Promoter) canPay(ctx context.Context, tx store.Tx, eventID, userID string) (ok, charged bool, err error) {
	profile, err := tx.Profile(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return true, false, nil
	}
	if err != nil {
		return false, false, err
	}
	if profile.DatesRemaining < 1 {
		p.log.Debug(ctx, "skipping waitlisted user without credits",
			logger.String("event_id", eventID), logger.String("user_id", userID))
		return false, false, nil
	}
	return true, true, nil
}

func (p *Promoter) resolveGender(ctx context.Context, r ledger.Removal) (gender.Gender, error) {
	if g := gender.Normalize(r.Gender); g.Valid() {
		return g, nil
	}
	profile, err := p.store.Profile(ctx, r.UserID)
	if err != nil {
		return gender.Unknown, fmt.Errorf("resolve gender of %s: %w", r.UserID, err)
	}
	return gender.Normalize(profile.Gender), nil
}

func (p *Promoter) mirror(ctx context.Context, ev models.Event, entry models.RosterEntry) error {
	return p.store.MirrorLatestEvent(ctx, models.LatestEvent{
		UserID:   entry.UserID,
		EventID:  ev.ID,
		Title:    ev.Title,
		StartsAt: ev.StartsAt,
		JoinedAt: entry.SignedUpAt,
	})
}

func (p *Promoter) notify(ctx context.Context, ev models.Event, entry models.RosterEntry) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.NotifyPromotion(ctx, ev, entry); err != nil {
		p.log.Warn(ctx, "promotion notification failed", logger.String("event_id", ev.ID), logger.Error(err))
	}
}

func (p *Promoter) transact(ctx context.Context, fn func(tx store.Tx) error) error {
	policy := p.retry
	policy.OnRetry = func(attempt int, err error) {
		p.metrics.RecordTxRetry("promotion")
		p.log.Debug(ctx, "retrying promotion", logger.Int("attempt", attempt), logger.Error(err))
	}
	return store.Transact(ctx, p.store, policy, fn)
}
