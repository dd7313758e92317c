package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
)

// EventSpec describes an event to create.
type EventSpec struct {
	Title      string
	StartsAt   time.Time
	MenSpots   int
	WomenSpots int
}

// CreateEvent stores a new event with empty counters.
func (l *Ledger) CreateEvent(ctx context.Context, spec EventSpec) (models.Event, error) {
	if spec.MenSpots < 0 || spec.WomenSpots < 0 {
		return models.Event{}, ErrInvalidSpots
	}
	ev := models.Event{
		ID:         uuid.NewString(),
		Title:      strings.TrimSpace(spec.Title),
		StartsAt:   spec.StartsAt.UTC(),
		MenSpots:   spec.MenSpots,
		WomenSpots: spec.WomenSpots,
	}
	if err := l.store.CreateEvent(ctx, &ev); err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

// Event returns the event with its cached counters.
func (l *Ledger) Event(ctx context.Context, eventID string) (models.Event, error) {
	return l.store.Event(ctx, eventID)
}

// Roster returns eventID's roster ordered by signup time.
func (l *Ledger) Roster(ctx context.Context, eventID string) ([]models.RosterEntry, error) {
	if _, err := l.store.Event(ctx, eventID); err != nil {
		return nil, err
	}
	return l.store.Roster(ctx, eventID)
}

// SetSpots overwrites the spot limits. Lowering a limit below the current
// count evicts nobody; it only blocks signups until the count drops.
func (l *Ledger) SetSpots(ctx context.Context, eventID string, men, women int) error {
	if men < 0 || women < 0 {
		return ErrInvalidSpots
	}
	return l.store.SetSpots(ctx, eventID, men, women)
}
