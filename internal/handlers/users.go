package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/matching/scoring"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
)

type UserPath struct {
	UserID string `path:"userID" doc:"User identifier"`
}

type ProfileInput struct {
	UserPath
	Body struct {
		DisplayName    string `json:"display_name,omitempty"`
		Email          string `json:"email,omitempty"`
		Gender         string `json:"gender" doc:"male, female or other"`
		Preference     string `json:"preference" doc:"men, women, both, other or no_preference"`
		DatesRemaining int    `json:"dates_remaining" minimum:"0"`
	}
}

type ProfileOutput struct {
	Body models.UserProfile
}

// HandlePutProfile syncs a profile from the account system.
func (h *Handler) HandlePutProfile(ctx context.Context, input *ProfileInput) (*ProfileOutput, error) {
	g, err := gender.ParseGender(input.Body.Gender)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	pref, err := gender.ParsePreference(input.Body.Preference)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	p := models.UserProfile{
		ID:             input.UserID,
		DisplayName:    input.Body.DisplayName,
		Email:          input.Body.Email,
		Gender:         g,
		Preference:     pref,
		DatesRemaining: input.Body.DatesRemaining,
	}
	if existing, err := h.store.Profile(ctx, input.UserID); err == nil {
		p.LatestEventID = existing.LatestEventID
	}
	if err := h.store.UpsertProfile(ctx, &p); err != nil {
		return nil, h.httpError(ctx, err)
	}
	return &ProfileOutput{Body: p}, nil
}

type AnswersInput struct {
	UserPath
	Body struct {
		Answers map[string]string `json:"answers" doc:"Question key to answer"`
	}
}

type AnswersOutput struct {
	Body models.QuestionnaireAnswers
}

func (h *Handler) HandlePutAnswers(ctx context.Context, input *AnswersInput) (*AnswersOutput, error) {
	rec, err := h.ranker.SaveAnswers(ctx, input.UserID, input.Body.Answers)
	if err != nil {
		return nil, h.httpError(ctx, err)
	}
	return &AnswersOutput{Body: rec}, nil
}

type MatchesInput struct {
	EventPath
	UserID string `path:"userID"`
}

type MatchesOutput struct {
	Body struct {
		EventID string           `json:"event_id"`
		UserID  string           `json:"user_id"`
		Results []scoring.Result `json:"results"`
	}
}

func (h *Handler) HandleMatches(ctx context.Context, input *MatchesInput) (*MatchesOutput, error) {
	results, err := h.ranker.Rank(ctx, input.EventID, input.UserID)
	if err != nil {
		return nil, h.httpError(ctx, err)
	}
	res := &MatchesOutput{}
	res.Body.EventID = input.EventID
	res.Body.UserID = input.UserID
	res.Body.Results = results
	return res, nil
}
