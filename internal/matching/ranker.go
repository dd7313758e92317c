package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/matching/scoring"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/logger"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/metrics"
)

type Option func(*Ranker)

func WithLogger(lg logger.Logger) Option {
	return func(r *Ranker) { r.log = lg }
}

func WithMetrics(m *metrics.Manager) Option {
	return func(r *Ranker) { r.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(r *Ranker) { r.now = now }
}

// Ranker takes questionnaire answers in and ranks an event's roster for one
// attendee.
type Ranker struct {
	store   store.Store
	engine  *scoring.Engine
	log     logger.Logger
	metrics *metrics.Manager
	now     func() time.Time
}

func NewRanker(s store.Store, engine *scoring.Engine, opts ...Option) *Ranker {
	r := &Ranker{
		store:   s,
		engine:  engine,
		log:     logger.Named("matching"),
		metrics: metrics.Default(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SaveAnswers validates answers against the questionnaire and replaces the
// user's active answer set.
func (r *Ranker) SaveAnswers(ctx context.Context, userID string, answers map[string]string) (models.QuestionnaireAnswers, error) {
	if _, err := r.store.Profile(ctx, userID); err != nil {
		return models.QuestionnaireAnswers{}, err
	}
	clean, err := r.engine.Tables().Validate(answers)
	if err != nil {
		return models.QuestionnaireAnswers{}, err
	}
	rec := models.QuestionnaireAnswers{UserID: userID, Answers: clean, SubmittedAt: r.now()}
	if err := r.store.SaveAnswers(ctx, &rec); err != nil {
		return models.QuestionnaireAnswers{}, err
	}
	return rec, nil
}

// Rank scores requesterID against every mutually compatible attendee of
// eventID. Attendees without answers are scored on neutral defaults.
func (r *Ranker) Rank(ctx context.Context, eventID, requesterID string) ([]scoring.Result, error) {
	started := time.Now()

	if _, err := r.store.Event(ctx, eventID); err != nil {
		return nil, err
	}
	requester, err := r.store.Profile(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	roster, err := r.store.Roster(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	ids := make([]string, 0, len(roster))
	for _, e := range roster {
		if e.UserID != requesterID {
			ids = append(ids, e.UserID)
		}
	}
	profiles, err := r.store.Profiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	pool := make([]Person, 0, len(profiles))
	for _, p := range profiles {
		pool = append(pool, personOf(p))
	}
	matches := Filter(personOf(requester), pool)
	if len(matches) == 0 {
		r.metrics.ObserveScoring(time.Since(started), 0)
		return []scoring.Result{}, nil
	}

	wanted := make([]string, 0, len(matches)+1)
	wanted = append(wanted, requesterID)
	for _, m := range matches {
		wanted = append(wanted, m.ID)
	}
	sets, err := r.store.Answers(ctx, wanted)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	byUser := make(map[string]map[string]string, len(sets))
	for _, s := range sets {
		byUser[s.UserID] = s.Answers
	}

	candidates := make([]scoring.Candidate, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, scoring.Candidate{ID: m.ID, Answers: byUser[m.ID]})
	}
	results := r.engine.Score(byUser[requesterID], candidates)

	r.metrics.ObserveScoring(time.Since(started), len(candidates))
	r.log.Debug(ctx, "ranked event pool",
		logger.String("event_id", eventID), logger.String("user_id", requesterID),
		logger.Int("roster", len(roster)), logger.Int("candidates", len(candidates)))
	return results, nil
}

func personOf(p models.UserProfile) Person {
	pref, err := gender.ParsePreference(string(p.Preference))
	if err != nil {
		pref = gender.NoneStated
	}
	return Person{
		ID:         p.ID,
		Gender:     gender.Normalize(p.Gender),
		Preference: pref,
	}
}
