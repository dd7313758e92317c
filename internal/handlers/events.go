package handlers

import (
	"context"
	"time"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/ledger"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
)

type EventPath struct {
	EventID string `path:"eventID" doc:"Event identifier"`
}

type CreateEventInput struct {
	Body struct {
		Title      string    `json:"title" minLength:"1" doc:"Event title"`
		StartsAt   time.Time `json:"starts_at" doc:"Start time"`
		MenSpots   int       `json:"men_spots" minimum:"0" doc:"Spots for men"`
		WomenSpots int       `json:"women_spots" minimum:"0" doc:"Spots for women"`
	}
}

type EventOutput struct {
	Body models.Event
}

func (h *Handler) HandleCreateEvent(ctx context.Context, input *CreateEventInput) (*EventOutput, error) {
	ev, err := h.ledger.CreateEvent(ctx, ledger.EventSpec{
		Title:      input.Body.Title,
		StartsAt:   input.Body.StartsAt,
		MenSpots:   input.Body.MenSpots,
		WomenSpots: input.Body.WomenSpots,
	})
	if err != nil {
		return nil, h.httpError(ctx, err)
	}
	return &EventOutput{Body: ev}, nil
}

func (h *Handler) HandleGetEvent(ctx context.Context, input *EventPath) (*EventOutput, error) {
	ev, err := h.ledger.Event(ctx, input.EventID)
	if err != nil {
		return nil, h.httpError(ctx, err)
	}
	return &EventOutput{Body: ev}, nil
}

type SetSpotsInput struct {
	EventPath
	Body struct {
		MenSpots   int `json:"men_spots" minimum:"0"`
		WomenSpots int `json:"women_spots" minimum:"0"`
	}
}

func (h *Handler) HandleSetSpots(ctx context.Context, input *SetSpotsInput) (*EventOutput, error) {
	if err := h.ledger.SetSpots(ctx, input.EventID, input.Body.MenSpots, input.Body.WomenSpots); err != nil {
		return nil, h.httpError(ctx, err)
	}
	ev, err := h.ledger.Event(ctx, input.EventID)
	if err != nil {
		return nil, h.httpError(ctx, err)
	}
	return &EventOutput{Body: ev}, nil
}

type RosterOutput struct {
	Body []models.RosterEntry
}

func (h *Handler) HandleRoster(ctx context.Context, input *EventPath) (*RosterOutput, error) {
	roster, err := h.ledger.Roster(ctx, input.EventID)
	if err != nil {
		return nil, h.httpError(ctx, err)
	}
	return &RosterOutput{Body: roster}, nil
}

type WaitlistOutput struct {
	Body []models.WaitlistEntry
}

func (h *Handler) HandleWaitlist(ctx context.Context, input *EventPath) (*WaitlistOutput, error) {
	waiting, err := h.ledger.Waitlist(ctx, input.EventID)
	if err != nil {
		return nil, h.httpError(ctx, err)
	}
	return &WaitlistOutput{Body: waiting}, nil
}

type ReconcileInput struct {
	EventPath
	Body struct {
		Apply bool `json:"apply,omitempty" doc:"Overwrite drifted counters"`
	} `required:"false"`
}

type ReconcileOutput struct {
	Body ledger.Report
}

func (h *Handler) HandleReconcile(ctx context.Context, input *ReconcileInput) (*ReconcileOutput, error) {
	rep, err := h.ledger.Reconcile(ctx, input.EventID, input.Body.Apply)
	if err != nil {
		return nil, h.httpError(ctx, err)
	}
	return &ReconcileOutput{Body: rep}, nil
}

type RosterMemberInput struct {
	EventPath
	UserID string `path:"userID"`
}

func (h *Handler) HandleRemoveFromRoster(ctx context.Context, input *RosterMemberInput) (*struct{}, error) {
	if err := h.ledger.RemoveBestEffort(ctx, input.EventID, input.UserID); err != nil {
		return nil, h.httpError(ctx, err)
	}
	return nil, nil
}
