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

// JoinWaitlist queues userID for eventID. Only users whose gender partition
// is full may queue; they need at least one credit, which is charged when
// they are promoted.
func (l *Ledger) JoinWaitlist(ctx context.Context, eventID, userID string) (*models.WaitlistEntry, error) {
	disp, ok := l.display(ctx, userID)

	var queued *models.WaitlistEntry
	err := l.transact(ctx, "waitlist_join", func(tx store.Tx) error {
		queued = nil

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
		onRoster, err := tx.RosterEntry(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if onRoster != nil {
			return ErrAlreadySignedUp
		}
		waiting, err := tx.WaitlistEntry(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if waiting != nil {
			return ErrAlreadyWaitlisted
		}
		if ev.Count(g) < spots {
			return ErrSpotAvailable
		}
		if profile.DatesRemaining < 1 {
			return ErrInsufficientCredits
		}

		entry := &models.WaitlistEntry{
			EventID:  eventID,
			UserID:   userID,
			Attendee: attendee(profile, g, disp, ok, l.now()),
		}
		if err := tx.InsertWaitlistEntry(ctx, entry); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrAlreadyWaitlisted
			}
			return err
		}
		queued = entry
		return nil
	})

	l.metrics.RecordWaitlistJoin(string(CodeOf(err)))
	if err != nil {
		return nil, err
	}
	l.log.Info(ctx, "joined waitlist", logger.String("event_id", eventID), logger.String("user_id", userID))
	return queued, nil
}

// LeaveWaitlist removes userID from eventID's waitlist.
func (l *Ledger) LeaveWaitlist(ctx context.Context, eventID, userID string) error {
	return l.transact(ctx, "waitlist_leave", func(tx store.Tx) error {
		if _, err := tx.Event(ctx, eventID); err != nil {
			return err
		}
		entry, err := tx.WaitlistEntry(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if entry == nil {
			return ErrNotWaitlisted
		}
		return tx.DeleteWaitlistEntry(ctx, eventID, userID)
	})
}

// Waitlist returns eventID's waitlist in queue order.
func (l *Ledger) Waitlist(ctx context.Context, eventID string) ([]models.WaitlistEntry, error) {
	if _, err := l.store.Event(ctx, eventID); err != nil {
		return nil, err
	}
	return l.store.Waitlist(ctx, eventID)
}
