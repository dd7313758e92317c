package gormstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	return New(db)
}

func seedEvent(t *testing.T, s *Store, id string) {
	t.Helper()
	ev := &models.Event{ID: id, Title: "Speed dating", MenSpots: 2, WomenSpots: 2}
	if err := s.CreateEvent(context.Background(), ev); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedEvent(t, s, "ev-1")

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx store.Tx) error {
		if err := tx.SetCounts(ctx, "ev-1", 2, 1); err != nil {
			return err
		}
		entry := &models.RosterEntry{EventID: "ev-1", UserID: "u1", Attendee: models.Attendee{Gender: gender.Male}}
		if err := tx.InsertRosterEntry(ctx, entry); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	ev, err := s.Event(ctx, "ev-1")
	if err != nil {
		t.Fatalf("Event failed: %v", err)
	}
	if ev.MenSignupCount != 0 || ev.WomenSignupCount != 0 {
		t.Errorf("counters changed despite rollback: %+v", ev)
	}
	roster, _ := s.Roster(ctx, "ev-1")
	if len(roster) != 0 {
		t.Errorf("expected empty roster after rollback, got %d entries", len(roster))
	}
}

func TestInsertRosterEntry_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedEvent(t, s, "ev-1")

	insert := func() error {
		return s.InTx(ctx, func(tx store.Tx) error {
			return tx.InsertRosterEntry(ctx, &models.RosterEntry{EventID: "ev-1", UserID: "u1"})
		})
	}
	if err := insert(); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if err := insert(); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestWaitlistOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedEvent(t, s, "ev-1")

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	entries := []models.WaitlistEntry{
		{EventID: "ev-1", UserID: "late", Attendee: models.Attendee{Gender: gender.Male, SignedUpAt: base.Add(2 * time.Minute)}},
		{EventID: "ev-1", UserID: "woman", Attendee: models.Attendee{Gender: gender.Female, SignedUpAt: base}},
		{EventID: "ev-1", UserID: "early", Attendee: models.Attendee{Gender: gender.Male, SignedUpAt: base.Add(time.Minute)}},
		{EventID: "ev-1", UserID: "legacy", Attendee: models.Attendee{Gender: "MALE", SignedUpAt: base.Add(-time.Minute)}},
	}
	err := s.InTx(ctx, func(tx store.Tx) error {
		for i := range entries {
			if err := tx.InsertWaitlistEntry(ctx, &entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seeding waitlist failed: %v", err)
	}

	err = s.InTx(ctx, func(tx store.Tx) error {
		first, err := tx.FirstWaitlisted(ctx, "ev-1", gender.Male)
		if err != nil {
			return err
		}
		if first == nil || first.UserID != "early" {
			t.Errorf("expected 'early' as first exact-match man, got %+v", first)
		}

		earliest, err := tx.EarliestWaitlisted(ctx, "ev-1", 2)
		if err != nil {
			return err
		}
		if len(earliest) != 2 || earliest[0].UserID != "legacy" || earliest[1].UserID != "woman" {
			t.Errorf("unexpected earliest order: %+v", earliest)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}
}

func TestCountRoster_NormalisesCasing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedEvent(t, s, "ev-1")

	err := s.InTx(ctx, func(tx store.Tx) error {
		for i, g := range []gender.Gender{gender.Male, "Male", gender.Female, gender.Other} {
			e := &models.RosterEntry{EventID: "ev-1", UserID: string(rune('a' + i)), Attendee: models.Attendee{Gender: g}}
			if err := tx.InsertRosterEntry(ctx, e); err != nil {
				return err
			}
		}
		men, women, err := tx.CountRoster(ctx, "ev-1")
		if err != nil {
			return err
		}
		if men != 2 || women != 1 {
			t.Errorf("expected 2 men / 1 woman, got %d / %d", men, women)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}
}

func TestAdjustCredits_FloorsAtZero(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertProfile(ctx, &models.UserProfile{ID: "u1", DatesRemaining: 1}); err != nil {
		t.Fatalf("UpsertProfile failed: %v", err)
	}
	if err := s.AdjustCredits(ctx, "u1", -3); err != nil {
		t.Fatalf("AdjustCredits failed: %v", err)
	}
	p, _ := s.Profile(ctx, "u1")
	if p.DatesRemaining != 0 {
		t.Errorf("expected balance 0, got %d", p.DatesRemaining)
	}

	if err := s.AdjustCredits(ctx, "missing", 1); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMirrorLatestEvent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.UpsertProfile(ctx, &models.UserProfile{ID: "u1"}); err != nil {
		t.Fatalf("UpsertProfile failed: %v", err)
	}

	rec := models.LatestEvent{UserID: "u1", EventID: "ev-9", Title: "Mixer", JoinedAt: time.Now().UTC()}
	if err := s.MirrorLatestEvent(ctx, rec); err != nil {
		t.Fatalf("MirrorLatestEvent failed: %v", err)
	}
	p, _ := s.Profile(ctx, "u1")
	if p.LatestEventID != "ev-9" {
		t.Errorf("expected latest event pointer ev-9, got %q", p.LatestEventID)
	}

	rec.UserID = "ghost"
	if err := s.MirrorLatestEvent(ctx, rec); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound for unknown user, got %v", err)
	}
}

func TestAnswersRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &models.QuestionnaireAnswers{UserID: "u1", Answers: map[string]string{"kids": "want"}}
	if err := s.SaveAnswers(ctx, a); err != nil {
		t.Fatalf("SaveAnswers failed: %v", err)
	}
	got, err := s.Answers(ctx, []string{"u1", "u2"})
	if err != nil {
		t.Fatalf("Answers failed: %v", err)
	}
	if len(got) != 1 || got[0].Answers["kids"] != "want" {
		t.Errorf("unexpected answers: %+v", got)
	}
}
