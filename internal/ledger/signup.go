package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/logger"
)

// Signup admits userID to eventID and charges credits from the user's
// balance. The capacity check, the counter increment, the roster insert and
// the credit charge happen in one transaction. A waitlist entry the user may
// hold for the event is consumed by the same transaction.
func (l *Ledger) Signup(ctx context.Context, eventID, userID string, credits int) (*models.RosterEntry, error) {
	if credits < 0 {
		return nil, ErrInvalidCredits
	}
	disp, ok := l.display(ctx, userID)

	var (
		admitted *models.RosterEntry
		full     models.Event
		fullFor  gender.Gender
	)
	err := l.transact(ctx, "signup", func(tx store.Tx) error {
		admitted = nil

		ev, err := tx.Event(ctx, eventID)
		if err != nil {
			return err
		}
		profile, err := tx.Profile(ctx, userID)
		if err != nil {
			return err
		}
		g := gender.Normalize(profile.Gender)
		spots, partitioned := ev.Spots(g)
		if !partitioned {
			return fmt.Errorf("%w: %q", ErrNoPartition, profile.Gender)
		}
		existing, err := tx.RosterEntry(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadySignedUp
		}
		waiting, err := tx.WaitlistEntry(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if ev.Count(g) >= spots {
			full, fullFor = ev, g
			return ErrCapacityExceeded
		}
		if profile.DatesRemaining < credits {
			return ErrInsufficientCredits
		}

		// Reads are done; writes follow.
		entry := &models.RosterEntry{
			EventID:  eventID,
			UserID:   userID,
			Attendee: attendee(profile, g, disp, ok, l.now()),
		}
		if err := tx.InsertRosterEntry(ctx, entry); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrAlreadySignedUp
			}
			return err
		}
		next := ev.WithCount(g, ev.Count(g)+1)
		if err := tx.SetCounts(ctx, eventID, next.MenSignupCount, next.WomenSignupCount); err != nil {
			return err
		}
		if credits > 0 {
			if err := tx.AdjustCredits(ctx, userID, -credits); err != nil {
				return err
			}
		}
		if waiting != nil {
			if err := tx.DeleteWaitlistEntry(ctx, eventID, userID); err != nil {
				return err
			}
		}
		admitted = entry
		return nil
	})

	code := CodeOf(err)
	l.metrics.RecordSignup(string(code))
	if err != nil {
		l.log.Info(ctx, "signup rejected",
			logger.String("event_id", eventID), logger.String("user_id", userID), logger.String("code", string(code)), logger.Error(err))
		if code == CapacityExceeded {
			l.notifyCapacity(ctx, full, fullFor, userID)
		}
		return nil, err
	}
	l.log.Info(ctx, "signup accepted",
		logger.String("event_id", eventID), logger.String("user_id", userID), logger.String("gender", admitted.Gender.String()))
	return admitted, nil
}

// Signout removes userID from eventID's roster, releases their counter slot
// (never below zero) and restores one credit. The released counter is the
// one matching the roster entry's gender; g is used only when the entry has
// no stated gender, then the profile's. Listeners are told about the removal
// once the transaction has committed.
func (l *Ledger) Signout(ctx context.Context, eventID, userID string, g gender.Gender) error {
	var released gender.Gender
	err := l.transact(ctx, "signout", func(tx store.Tx) error {
		ev, err := tx.Event(ctx, eventID)
		if err != nil {
			return err
		}
		entry, err := tx.RosterEntry(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if entry == nil {
			return ErrNotOnRoster
		}
		profile, err := tx.Profile(ctx, userID)
		hasProfile := err == nil
		if err != nil && !errors.Is(err, store.ErrUserNotFound) {
			return err
		}

		// The roster entry decides which partition is released; the
		// caller's gender is only a fallback for entries without one.
		released = gender.Normalize(entry.Gender)
		if !released.Valid() {
			released = gender.Normalize(g)
		}
		if !released.Valid() && hasProfile {
			released = gender.Normalize(profile.Gender)
		}

		if _, partitioned := ev.Spots(released); partitioned {
			next := ev.WithCount(released, max(ev.Count(released)-1, 0))
			if err := tx.SetCounts(ctx, eventID, next.MenSignupCount, next.WomenSignupCount); err != nil {
				return err
			}
		}
		if err := tx.DeleteRosterEntry(ctx, eventID, userID); err != nil {
			return err
		}
		if hasProfile {
			if err := tx.AdjustCredits(ctx, userID, 1); err != nil {
				return err
			}
		}
		return nil
	})

	code := CodeOf(err)
	l.metrics.RecordSignout(string(code))
	if err != nil {
		return err
	}
	l.log.Info(ctx, "signout committed",
		logger.String("event_id", eventID), logger.String("user_id", userID), logger.String("gender", released.String()))

	l.notifyRemoval(ctx, Removal{
		EventID:   eventID,
		UserID:    userID,
		Gender:    released,
		Released:  true,
		RemovedAt: l.now(),
	})
	return nil
}
