package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/ledger"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/matching/scoring"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/logger"
)

// httpError maps domain errors onto huma status errors. Unclassified errors
// are logged and surface as 500.
func (h *Handler) httpError(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrEventNotFound):
		return huma.Error404NotFound("Event not found")
	case errors.Is(err, store.ErrUserNotFound):
		return huma.Error404NotFound("User not found")
	case errors.Is(err, ledger.ErrInvalidSpots),
		errors.Is(err, ledger.ErrInvalidCredits),
		errors.Is(err, gender.ErrUnknownGender),
		errors.Is(err, gender.ErrUnknownPreference),
		errors.Is(err, scoring.ErrUnknownQuestion),
		errors.Is(err, scoring.ErrUnknownAnswer):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, store.ErrRetriesExhausted):
		return huma.Error503ServiceUnavailable("Too much contention, try again")
	}

	switch ledger.CodeOf(err) {
	case ledger.CapacityExceeded, ledger.Rejected:
		return huma.Error409Conflict(err.Error())
	}
	h.log.Error(ctx, "request failed", logger.Error(err))
	return huma.Error500InternalServerError("Internal error")
}
