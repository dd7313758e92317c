// Package store defines the persistence contract shared by the ledger and the
// promotion protocol. Implementations must make everything done through a Tx
// atomic, and must serialise concurrent transactions that touch the same event
// (row lock or single writer).
package store

import (
	"context"
	"errors"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicate     = errors.New("duplicate record")
	// ErrContention marks a transaction aborted by a conflicting writer. It is
	// safe to retry the whole transaction.
	ErrContention = errors.New("transaction contention")
)

// Store is the persistence boundary.
type Store interface {
	// InTx runs fn inside one atomic transaction. An error from fn rolls back.
	// All reads in fn must happen before its first write.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	CreateEvent(ctx context.Context, ev *models.Event) error
	Event(ctx context.Context, eventID string) (models.Event, error)
	SetSpots(ctx context.Context, eventID string, men, women int) error

	Roster(ctx context.Context, eventID string) ([]models.RosterEntry, error)
	Waitlist(ctx context.Context, eventID string) ([]models.WaitlistEntry, error)
	// DeleteRosterEntry removes an entry outside any transaction. Reports
	// whether a row was deleted.
	DeleteRosterEntry(ctx context.Context, eventID, userID string) (bool, error)

	UpsertProfile(ctx context.Context, p *models.UserProfile) error
	Profile(ctx context.Context, userID string) (models.UserProfile, error)
	Profiles(ctx context.Context, userIDs []string) ([]models.UserProfile, error)
	AdjustCredits(ctx context.Context, userID string, delta int) error

	SaveAnswers(ctx context.Context, a *models.QuestionnaireAnswers) error
	Answers(ctx context.Context, userIDs []string) ([]models.QuestionnaireAnswers, error)

	// MirrorLatestEvent upserts the denormalised latest-event record and the
	// profile's most-recent-event pointer.
	MirrorLatestEvent(ctx context.Context, rec models.LatestEvent) error
}

// Tx is the transactional view of the store.
type Tx interface {
	// Event reads the event and, where the backend supports it, locks the row
	// until the transaction ends.
	Event(ctx context.Context, eventID string) (models.Event, error)
	Profile(ctx context.Context, userID string) (models.UserProfile, error)

	RosterEntry(ctx context.Context, eventID, userID string) (*models.RosterEntry, error)
	WaitlistEntry(ctx context.Context, eventID, userID string) (*models.WaitlistEntry, error)
	// FirstWaitlisted returns the earliest entry stored with exactly g, or nil.
	FirstWaitlisted(ctx context.Context, eventID string, g gender.Gender) (*models.WaitlistEntry, error)
	// EarliestWaitlisted returns up to limit entries in queue order.
	EarliestWaitlisted(ctx context.Context, eventID string, limit int) ([]models.WaitlistEntry, error)
	CountRoster(ctx context.Context, eventID string) (men, women int, err error)

	InsertRosterEntry(ctx context.Context, e *models.RosterEntry) error
	DeleteRosterEntry(ctx context.Context, eventID, userID string) error
	InsertWaitlistEntry(ctx context.Context, e *models.WaitlistEntry) error
	DeleteWaitlistEntry(ctx context.Context, eventID, userID string) error
	SetCounts(ctx context.Context, eventID string, men, women int) error
	// AdjustCredits adds delta to the user's balance, flooring at zero.
	AdjustCredits(ctx context.Context, userID string, delta int) error
}
