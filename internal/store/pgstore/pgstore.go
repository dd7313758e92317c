// Package pgstore implements store.Store on PostgreSQL through pgx.
//
// Concurrent writers on one event are serialised with pessimistic locking:
// every ledger transaction starts by reading the event row with
// SELECT ... FOR UPDATE, so a second transaction on the same event blocks
// until the first commits or rolls back. Serialization failures and deadlocks
// reported by the server are surfaced as store.ErrContention and retried by
// store.Transact.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store"
)

const (
	eventColumns    = `id, title, starts_at, men_spots, women_spots, men_signup_count, women_signup_count, created_at, updated_at`
	attendeeColumns = `id, event_id, user_id, display_name, email, gender, signed_up_at`
	profileColumns  = `id, display_name, email, gender, preference, dates_remaining, latest_event_id, updated_at`
	queueOrder      = `signed_up_at ASC, id ASC, user_id ASC`
)

// querier is the subset of pgx shared by the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InTx runs fn in a READ COMMITTED transaction. Isolation between writers
// comes from the FOR UPDATE lock taken by txn.Event.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return translate(fmt.Errorf("begin transaction: %w", err))
	}
	// Rollback after a successful commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&txn{q: tx}); err != nil {
		return translate(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translate(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func (s *Store) CreateEvent(ctx context.Context, ev *models.Event) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO events (id, title, starts_at, men_spots, women_spots, men_signup_count, women_signup_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		ev.ID, ev.Title, ev.StartsAt, ev.MenSpots, ev.WomenSpots, ev.MenSignupCount, ev.WomenSignupCount,
	).Scan(&ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", translate(err))
	}
	return nil
}

func (s *Store) Event(ctx context.Context, eventID string) (models.Event, error) {
	return loadEvent(ctx, s.pool, `SELECT `+eventColumns+` FROM events WHERE id = $1`, eventID)
}

func (s *Store) SetSpots(ctx context.Context, eventID string, men, women int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE events SET men_spots = $2, women_spots = $3, updated_at = now() WHERE id = $1`,
		eventID, men, women,
	)
	if err != nil {
		return fmt.Errorf("update spots: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrEventNotFound
	}
	return nil
}

func (s *Store) Roster(ctx context.Context, eventID string) ([]models.RosterEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+attendeeColumns+` FROM roster_entries WHERE event_id = $1 ORDER BY `+queueOrder, eventID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", translate(err))
	}
	return collectRoster(rows)
}

func (s *Store) Waitlist(ctx context.Context, eventID string) ([]models.WaitlistEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+attendeeColumns+` FROM waitlist_entries WHERE event_id = $1 ORDER BY `+queueOrder, eventID)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", translate(err))
	}
	return collectWaitlist(rows)
}

func (s *Store) DeleteRosterEntry(ctx context.Context, eventID, userID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM roster_entries WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("delete roster entry: %w", translate(err))
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) UpsertProfile(ctx context.Context, p *models.UserProfile) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO user_profiles (id, display_name, email, gender, preference, dates_remaining, latest_event_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   display_name = EXCLUDED.display_name,
		   email = EXCLUDED.email,
		   gender = EXCLUDED.gender,
		   preference = EXCLUDED.preference,
		   dates_remaining = EXCLUDED.dates_remaining,
		   latest_event_id = EXCLUDED.latest_event_id,
		   updated_at = now()
		 RETURNING updated_at`,
		p.ID, p.DisplayName, p.Email, string(p.Gender), string(p.Preference), p.DatesRemaining, p.LatestEventID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save profile: %w", translate(err))
	}
	return nil
}

func (s *Store) Profile(ctx context.Context, userID string) (models.UserProfile, error) {
	return loadProfile(ctx, s.pool, userID)
}

func (s *Store) Profiles(ctx context.Context, userIDs []string) ([]models.UserProfile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE id = ANY($1) ORDER BY id ASC`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", translate(err))
	}
	defer rows.Close()

	var profiles []models.UserProfile
	for rows.Next() {
		var p models.UserProfile
		if err := scanProfile(rows, &p); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *Store) AdjustCredits(ctx context.Context, userID string, delta int) error {
	return adjustCredits(ctx, s.pool, userID, delta)
}

func (s *Store) SaveAnswers(ctx context.Context, a *models.QuestionnaireAnswers) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO questionnaire_answers (user_id, answers, submitted_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET answers = EXCLUDED.answers, submitted_at = EXCLUDED.submitted_at`,
		a.UserID, a.Answers, a.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("save answers: %w", translate(err))
	}
	return nil
}

func (s *Store) Answers(ctx context.Context, userIDs []string) ([]models.QuestionnaireAnswers, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, answers, submitted_at FROM questionnaire_answers WHERE user_id = ANY($1) ORDER BY user_id ASC`,
		userIDs)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", translate(err))
	}
	defer rows.Close()

	var out []models.QuestionnaireAnswers
	for rows.Next() {
		var a models.QuestionnaireAnswers
		if err := rows.Scan(&a.UserID, &a.Answers, &a.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan answers: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) MirrorLatestEvent(ctx context.Context, rec models.LatestEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO latest_events (user_id, event_id, title, starts_at, joined_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		   event_id = EXCLUDED.event_id, title = EXCLUDED.title,
		   starts_at = EXCLUDED.starts_at, joined_at = EXCLUDED.joined_at`,
		rec.UserID, rec.EventID, rec.Title, rec.StartsAt, rec.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("save latest event: %w", translate(err))
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE user_profiles SET latest_event_id = $2, updated_at = now() WHERE id = $1`, rec.UserID, rec.EventID)
	if err != nil {
		return fmt.Errorf("update latest event pointer: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

type txn struct {
	q querier
}

// Event takes the row-level lock that serialises writers on this event.
func (t *txn) Event(ctx context.Context, eventID string) (models.Event, error) {
	return loadEvent(ctx, t.q, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID)
}

func (t *txn) Profile(ctx context.Context, userID string) (models.UserProfile, error) {
	return loadProfile(ctx, t.q, userID)
}

func (t *txn) RosterEntry(ctx context.Context, eventID, userID string) (*models.RosterEntry, error) {
	rows, err := t.q.Query(ctx,
		`SELECT `+attendeeColumns+` FROM roster_entries WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("get roster entry: %w", translate(err))
	}
	entries, err := collectRoster(rows)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

func (t *txn) WaitlistEntry(ctx context.Context, eventID, userID string) (*models.WaitlistEntry, error) {
	rows, err := t.q.Query(ctx,
		`SELECT `+attendeeColumns+` FROM waitlist_entries WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("get waitlist entry: %w", translate(err))
	}
	entries, err := collectWaitlist(rows)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

func (t *txn) FirstWaitlisted(ctx context.Context, eventID string, g gender.Gender) (*models.WaitlistEntry, error) {
	rows, err := t.q.Query(ctx,
		`SELECT `+attendeeColumns+` FROM waitlist_entries
		 WHERE event_id = $1 AND gender = $2
		 ORDER BY `+queueOrder+` LIMIT 1`, eventID, string(g))
	if err != nil {
		return nil, fmt.Errorf("first waitlisted: %w", translate(err))
	}
	entries, err := collectWaitlist(rows)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

func (t *txn) EarliestWaitlisted(ctx context.Context, eventID string, limit int) ([]models.WaitlistEntry, error) {
	rows, err := t.q.Query(ctx,
		`SELECT `+attendeeColumns+` FROM waitlist_entries WHERE event_id = $1 ORDER BY `+queueOrder+` LIMIT $2`,
		eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("earliest waitlisted: %w", translate(err))
	}
	return collectWaitlist(rows)
}

func (t *txn) CountRoster(ctx context.Context, eventID string) (int, int, error) {
	rows, err := t.q.Query(ctx,
		`SELECT gender, COUNT(*) FROM roster_entries WHERE event_id = $1 GROUP BY gender`, eventID)
	if err != nil {
		return 0, 0, fmt.Errorf("count roster: %w", translate(err))
	}
	defer rows.Close()

	var men, women int
	for rows.Next() {
		var g string
		var n int
		if err := rows.Scan(&g, &n); err != nil {
			return 0, 0, fmt.Errorf("scan roster count: %w", err)
		}
		switch gender.Normalize(gender.Gender(g)) {
		case gender.Male:
			men += n
		case gender.Female:
			women += n
		}
	}
	return men, women, rows.Err()
}

func (t *txn) InsertRosterEntry(ctx context.Context, e *models.RosterEntry) error {
	err := t.q.QueryRow(ctx,
		`INSERT INTO roster_entries (event_id, user_id, display_name, email, gender, signed_up_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		e.EventID, e.UserID, e.DisplayName, e.Email, string(e.Gender), e.SignedUpAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert roster entry: %w", translate(err))
	}
	return nil
}

func (t *txn) DeleteRosterEntry(ctx context.Context, eventID, userID string) error {
	if _, err := t.q.Exec(ctx, `DELETE FROM roster_entries WHERE event_id = $1 AND user_id = $2`, eventID, userID); err != nil {
		return fmt.Errorf("delete roster entry: %w", translate(err))
	}
	return nil
}

func (t *txn) InsertWaitlistEntry(ctx context.Context, e *models.WaitlistEntry) error {
	err := t.q.QueryRow(ctx,
		`INSERT INTO waitlist_entries (event_id, user_id, display_name, email, gender, signed_up_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		e.EventID, e.UserID, e.DisplayName, e.Email, string(e.Gender), e.SignedUpAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert waitlist entry: %w", translate(err))
	}
	return nil
}

func (t *txn) DeleteWaitlistEntry(ctx context.Context, eventID, userID string) error {
	if _, err := t.q.Exec(ctx, `DELETE FROM waitlist_entries WHERE event_id = $1 AND user_id = $2`, eventID, userID); err != nil {
		return fmt.Errorf("delete waitlist entry: %w", translate(err))
	}
	return nil
}

func (t *txn) SetCounts(ctx context.Context, eventID string, men, women int) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE events SET men_signup_count = $2, women_signup_count = $3, updated_at = now() WHERE id = $1`,
		eventID, men, women)
	if err != nil {
		return fmt.Errorf("set counts: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrEventNotFound
	}
	return nil
}

func (t *txn) AdjustCredits(ctx context.Context, userID string, delta int) error {
	return adjustCredits(ctx, t.q, userID, delta)
}

func loadEvent(ctx context.Context, q querier, sql, eventID string) (models.Event, error) {
	var e models.Event
	err := q.QueryRow(ctx, sql, eventID).Scan(
		&e.ID, &e.Title, &e.StartsAt, &e.MenSpots, &e.WomenSpots,
		&e.MenSignupCount, &e.WomenSignupCount, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Event{}, store.ErrEventNotFound
		}
		return models.Event{}, fmt.Errorf("get event: %w", translate(err))
	}
	return e, nil
}

func loadProfile(ctx context.Context, q querier, userID string) (models.UserProfile, error) {
	var p models.UserProfile
	err := scanProfile(q.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`, userID), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UserProfile{}, store.ErrUserNotFound
		}
		return models.UserProfile{}, fmt.Errorf("get profile: %w", translate(err))
	}
	return p, nil
}

func scanProfile(row pgx.Row, p *models.UserProfile) error {
	var g, pref string
	if err := row.Scan(&p.ID, &p.DisplayName, &p.Email, &g, &pref, &p.DatesRemaining, &p.LatestEventID, &p.UpdatedAt); err != nil {
		return err
	}
	p.Gender = gender.Gender(g)
	p.Preference = gender.Preference(pref)
	return nil
}

func adjustCredits(ctx context.Context, q querier, userID string, delta int) error {
	tag, err := q.Exec(ctx,
		`UPDATE user_profiles SET dates_remaining = GREATEST(dates_remaining + $2, 0), updated_at = now() WHERE id = $1`,
		userID, delta)
	if err != nil {
		return fmt.Errorf("adjust credits: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func scanAttendee(rows pgx.Rows) (id uint, eventID, userID string, a models.Attendee, err error) {
	var g string
	err = rows.Scan(&id, &eventID, &userID, &a.DisplayName, &a.Email, &g, &a.SignedUpAt)
	a.Gender = gender.Gender(g)
	return id, eventID, userID, a, err
}

func collectRoster(rows pgx.Rows) ([]models.RosterEntry, error) {
	defer rows.Close()
	var out []models.RosterEntry
	for rows.Next() {
		id, eventID, userID, a, err := scanAttendee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		out = append(out, models.RosterEntry{ID: id, EventID: eventID, UserID: userID, Attendee: a})
	}
	return out, rows.Err()
}

func collectWaitlist(rows pgx.Rows) ([]models.WaitlistEntry, error) {
	defer rows.Close()
	var out []models.WaitlistEntry
	for rows.Next() {
		id, eventID, userID, a, err := scanAttendee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waitlist entry: %w", err)
		}
		out = append(out, models.WaitlistEntry{ID: id, EventID: eventID, UserID: userID, Attendee: a})
	}
	return out, rows.Err()
}

// translate maps server error codes onto the store's sentinel errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
			return fmt.Errorf("%w: %v", store.ErrContention, err)
		case "23505": // unique_violation
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		}
	}
	return err
}
