// Package gormstore implements store.Store on gorm. It is used with sqlite,
// where the handle is limited to a single connection so transactions are
// serialised, and row locking clauses are dropped by the dialect.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// queueOrder is the FIFO order of the waitlist with stable tie-breakers.
const queueOrder = "signed_up_at ASC, id ASC, user_id ASC"

// Migrate creates or updates every table the store uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Event{},
		&models.RosterEntry{},
		&models.WaitlistEntry{},
		&models.UserProfile{},
		&models.LatestEvent{},
		&models.QuestionnaireAnswers{},
	)
}

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txn{db: tx})
	})
	return translate(err)
}

func (s *Store) CreateEvent(ctx context.Context, ev *models.Event) error {
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("insert event: %w", translate(err))
	}
	return nil
}

func (s *Store) Event(ctx context.Context, eventID string) (models.Event, error) {
	return loadEvent(s.db.WithContext(ctx), eventID)
}

func (s *Store) SetSpots(ctx context.Context, eventID string, men, women int) error {
	res := s.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", eventID).
		Updates(map[string]any{"men_spots": men, "women_spots": women})
	if res.Error != nil {
		return fmt.Errorf("update spots: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return store.ErrEventNotFound
	}
	return nil
}

func (s *Store) Roster(ctx context.Context, eventID string) ([]models.RosterEntry, error) {
	var entries []models.RosterEntry
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).Order(queueOrder).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list roster: %w", translate(err))
	}
	return entries, nil
}

func (s *Store) Waitlist(ctx context.Context, eventID string) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).Order(queueOrder).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list waitlist: %w", translate(err))
	}
	return entries, nil
}

func (s *Store) DeleteRosterEntry(ctx context.Context, eventID, userID string) (bool, error) {
	res := s.db.WithContext(ctx).Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&models.RosterEntry{})
	if res.Error != nil {
		return false, fmt.Errorf("delete roster entry: %w", translate(res.Error))
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) UpsertProfile(ctx context.Context, p *models.UserProfile) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("save profile: %w", translate(err))
	}
	return nil
}

func (s *Store) Profile(ctx context.Context, userID string) (models.UserProfile, error) {
	return loadProfile(s.db.WithContext(ctx), userID)
}

func (s *Store) Profiles(ctx context.Context, userIDs []string) ([]models.UserProfile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var profiles []models.UserProfile
	if err := s.db.WithContext(ctx).Where("id IN ?", userIDs).Order("id ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("list profiles: %w", translate(err))
	}
	return profiles, nil
}

func (s *Store) AdjustCredits(ctx context.Context, userID string, delta int) error {
	return adjustCredits(s.db.WithContext(ctx), userID, delta)
}

func (s *Store) SaveAnswers(ctx context.Context, a *models.QuestionnaireAnswers) error {
	if err := s.db.WithContext(ctx).Save(a).Error; err != nil {
		return fmt.Errorf("save answers: %w", translate(err))
	}
	return nil
}

func (s *Store) Answers(ctx context.Context, userIDs []string) ([]models.QuestionnaireAnswers, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var answers []models.QuestionnaireAnswers
	if err := s.db.WithContext(ctx).Where("user_id IN ?", userIDs).Order("user_id ASC").Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("list answers: %w", translate(err))
	}
	return answers, nil
}

func (s *Store) MirrorLatestEvent(ctx context.Context, rec models.LatestEvent) error {
	db := s.db.WithContext(ctx)
	if err := db.Save(&rec).Error; err != nil {
		return fmt.Errorf("save latest event: %w", translate(err))
	}
	res := db.Model(&models.UserProfile{}).Where("id = ?", rec.UserID).Update("latest_event_id", rec.EventID)
	if res.Error != nil {
		return fmt.Errorf("update latest event pointer: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// txn is the transactional view handed to store.Tx callers.
type txn struct {
	db *gorm.DB
}

func (t *txn) Event(ctx context.Context, eventID string) (models.Event, error) {
	return loadEvent(t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), eventID)
}

func (t *txn) Profile(ctx context.Context, userID string) (models.UserProfile, error) {
	return loadProfile(t.db.WithContext(ctx), userID)
}

func (t *txn) RosterEntry(ctx context.Context, eventID, userID string) (*models.RosterEntry, error) {
	var entries []models.RosterEntry
	if err := t.db.WithContext(ctx).Where("event_id = ? AND user_id = ?", eventID, userID).Limit(1).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("get roster entry: %w", translate(err))
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (t *txn) WaitlistEntry(ctx context.Context, eventID, userID string) (*models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	if err := t.db.WithContext(ctx).Where("event_id = ? AND user_id = ?", eventID, userID).Limit(1).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("get waitlist entry: %w", translate(err))
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (t *txn) FirstWaitlisted(ctx context.Context, eventID string, g gender.Gender) (*models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	err := t.db.WithContext(ctx).
		Where("event_id = ? AND gender = ?", eventID, g).
		Order(queueOrder).Limit(1).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("first waitlisted: %w", translate(err))
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (t *txn) EarliestWaitlisted(ctx context.Context, eventID string, limit int) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	err := t.db.WithContext(ctx).Where("event_id = ?", eventID).Order(queueOrder).Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("earliest waitlisted: %w", translate(err))
	}
	return entries, nil
}

func (t *txn) CountRoster(ctx context.Context, eventID string) (int, int, error) {
	var rows []struct {
		Gender string
		N      int
	}
	err := t.db.WithContext(ctx).Model(&models.RosterEntry{}).
		Select("gender, COUNT(*) AS n").
		Where("event_id = ?", eventID).
		Group("gender").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, fmt.Errorf("count roster: %w", translate(err))
	}

	var men, women int
	for _, r := range rows {
		switch gender.Normalize(gender.Gender(r.Gender)) {
		case gender.Male:
			men += r.N
		case gender.Female:
			women += r.N
		}
	}
	return men, women, nil
}

func (t *txn) InsertRosterEntry(ctx context.Context, e *models.RosterEntry) error {
	if err := t.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("insert roster entry: %w", translate(err))
	}
	return nil
}

func (t *txn) DeleteRosterEntry(ctx context.Context, eventID, userID string) error {
	err := t.db.WithContext(ctx).Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&models.RosterEntry{}).Error
	if err != nil {
		return fmt.Errorf("delete roster entry: %w", translate(err))
	}
	return nil
}

func (t *txn) InsertWaitlistEntry(ctx context.Context, e *models.WaitlistEntry) error {
	if err := t.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("insert waitlist entry: %w", translate(err))
	}
	return nil
}

func (t *txn) DeleteWaitlistEntry(ctx context.Context, eventID, userID string) error {
	err := t.db.WithContext(ctx).Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&models.WaitlistEntry{}).Error
	if err != nil {
		return fmt.Errorf("delete waitlist entry: %w", translate(err))
	}
	return nil
}

func (t *txn) SetCounts(ctx context.Context, eventID string, men, women int) error {
	res := t.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", eventID).
		Updates(map[string]any{"men_signup_count": men, "women_signup_count": women})
	if res.Error != nil {
		return fmt.Errorf("set counts: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return store.ErrEventNotFound
	}
	return nil
}

func (t *txn) AdjustCredits(ctx context.Context, userID string, delta int) error {
	return adjustCredits(t.db.WithContext(ctx), userID, delta)
}

func loadEvent(db *gorm.DB, eventID string) (models.Event, error) {
	var ev models.Event
	if err := db.Where("id = ?", eventID).Take(&ev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Event{}, store.ErrEventNotFound
		}
		return models.Event{}, fmt.Errorf("get event: %w", translate(err))
	}
	return ev, nil
}

func loadProfile(db *gorm.DB, userID string) (models.UserProfile, error) {
	var p models.UserProfile
	if err := db.Where("id = ?", userID).Take(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.UserProfile{}, store.ErrUserNotFound
		}
		return models.UserProfile{}, fmt.Errorf("get profile: %w", translate(err))
	}
	return p, nil
}

func adjustCredits(db *gorm.DB, userID string, delta int) error {
	res := db.Model(&models.UserProfile{}).Where("id = ?", userID).
		Update("dates_remaining", gorm.Expr("MAX(dates_remaining + ?, 0)", delta))
	if res.Error != nil {
		return fmt.Errorf("adjust credits: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// translate maps driver errors onto the store's sentinel errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch {
		case se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked:
			return fmt.Errorf("%w: %v", store.ErrContention, err)
		case se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		}
	}
	return err
}
