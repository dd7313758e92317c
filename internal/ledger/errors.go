package ledger

import (
	"errors"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store"
)

var (
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrAlreadySignedUp     = errors.New("user already signed up for this event")
	ErrNotOnRoster         = errors.New("user is not signed up for this event")
	ErrAlreadyWaitlisted   = errors.New("user already on the waitlist for this event")
	ErrNotWaitlisted       = errors.New("user is not on the waitlist for this event")
	ErrSpotAvailable       = errors.New("a spot is available, sign up instead")
	ErrInsufficientCredits = errors.New("not enough dates remaining")
	ErrNoPartition         = errors.New("no capacity partition for this gender")
	ErrInvalidSpots        = errors.New("spot limits must be non-negative")
	ErrInvalidCredits      = errors.New("credit amount must be non-negative")
)

// Code is the result code surfaced to callers.
type Code string

const (
	Accepted         Code = "Accepted"
	CapacityExceeded Code = "CapacityExceeded"
	EventNotFound    Code = "EventNotFound"
	UserNotFound     Code = "UserNotFound"
	NoOp             Code = "NoOp"
	Rejected         Code = "Rejected"
	Failed           Code = "Failed"
)

// CodeOf classifies the error returned by a ledger operation.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return Accepted
	case errors.Is(err, ErrCapacityExceeded):
		return CapacityExceeded
	case errors.Is(err, store.ErrEventNotFound):
		return EventNotFound
	case errors.Is(err, store.ErrUserNotFound):
		return UserNotFound
	case errors.Is(err, ErrAlreadySignedUp),
		errors.Is(err, ErrNotOnRoster),
		errors.Is(err, ErrAlreadyWaitlisted),
		errors.Is(err, ErrNotWaitlisted),
		errors.Is(err, ErrSpotAvailable),
		errors.Is(err, ErrInsufficientCredits),
		errors.Is(err, ErrNoPartition),
		errors.Is(err, ErrInvalidSpots),
		errors.Is(err, ErrInvalidCredits),
		errors.Is(err, store.ErrDuplicate):
		return Rejected
	}
	return Failed
}
