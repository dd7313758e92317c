package ledger

import (
	"context"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/logger"
)

// RemoveBestEffort deletes a roster entry without a transaction. It is the
// operator cleanup path: the counter is left untouched (the promotion
// transaction or the reconciler settles it), the credit refund is attempted
// but may fail on its own, and the event is queued for reconciliation.
func (l *Ledger) RemoveBestEffort(ctx context.Context, eventID, userID string) error {
	if _, err := l.store.Event(ctx, eventID); err != nil {
		return err
	}
	roster, err := l.store.Roster(ctx, eventID)
	if err != nil {
		return err
	}
	var entry *models.RosterEntry
	for i := range roster {
		if roster[i].UserID == userID {
			entry = &roster[i]
			break
		}
	}
	if entry == nil {
		return ErrNotOnRoster
	}

	deleted, err := l.store.DeleteRosterEntry(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotOnRoster
	}

	g := gender.Normalize(entry.Gender)
	if !g.Valid() {
		if p, err := l.store.Profile(ctx, userID); err == nil {
			g = gender.Normalize(p.Gender)
		}
	}

	if err := l.store.AdjustCredits(ctx, userID, 1); err != nil {
		l.log.Warn(ctx, "credit refund failed after removal",
			logger.String("event_id", eventID), logger.String("user_id", userID), logger.Error(err))
	}
	l.healer.MarkDirty(eventID)
	l.log.Info(ctx, "roster entry removed", logger.String("event_id", eventID), logger.String("user_id", userID))

	l.notifyRemoval(ctx, Removal{
		EventID:   eventID,
		UserID:    userID,
		Gender:    g,
		Released:  false,
		RemovedAt: l.now(),
	})
	return nil
}
