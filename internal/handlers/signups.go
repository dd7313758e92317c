package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/ledger"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
)

type SignupInput struct {
	EventPath
	Body struct {
		UserID  string `json:"user_id" minLength:"1"`
		Credits *int   `json:"credits,omitempty" minimum:"0" doc:"Credits to charge, 1 when omitted"`
	}
}

type SignupOutput struct {
	Body struct {
		Code  ledger.Code        `json:"code"`
		Entry models.RosterEntry `json:"entry"`
	}
}

func (h *Handler) HandleSignup(ctx context.Context, input *SignupInput) (*SignupOutput, error) {
	credits := 1
	if input.Body.Credits != nil {
		credits = *input.Body.Credits
	}
	entry, err := h.ledger.Signup(ctx, input.EventID, input.Body.UserID, credits)
	if err != nil {
		return nil, h.httpError(ctx, err)
	}
	res := &SignupOutput{}
	res.Body.Code = ledger.Accepted
	res.Body.Entry = *entry
	return res, nil
}

type SignoutInput struct {
	EventPath
	UserID string `path:"userID"`
	Gender string `query:"gender" doc:"Partition to release; defaults to the roster entry's gender"`
}

func (h *Handler) HandleSignout(ctx context.Context, input *SignoutInput) (*struct{}, error) {
	g, err := gender.ParseGender(input.Gender)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	if err := h.ledger.Signout(ctx, input.EventID, input.UserID, g); err != nil {
		return nil, h.httpError(ctx, err)
	}
	return nil, nil
}

type JoinWaitlistInput struct {
	EventPath
	Body struct {
		UserID string `json:"user_id" minLength:"1"`
	}
}

type WaitlistEntryOutput struct {
	Body models.WaitlistEntry
}

func (h *Handler) HandleJoinWaitlist(ctx context.Context, input *JoinWaitlistInput) (*WaitlistEntryOutput, error) {
	entry, err := h.ledger.JoinWaitlist(ctx, input.EventID, input.Body.UserID)
	if err != nil {
		return nil, h.httpError(ctx, err)
	}
	return &WaitlistEntryOutput{Body: *entry}, nil
}

type WaitlistMemberInput struct {
	EventPath
	UserID string `path:"userID"`
}

func (h *Handler) HandleLeaveWaitlist(ctx context.Context, input *WaitlistMemberInput) (*struct{}, error) {
	if err := h.ledger.LeaveWaitlist(ctx, input.EventID, input.UserID); err != nil {
		return nil, h.httpError(ctx, err)
	}
	return nil, nil
}
