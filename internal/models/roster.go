package models

import (
	"time"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
)

// Attendee holds the fields shared by roster and waitlist entries.
type Attendee struct {
	DisplayName string        `json:"display_name"`
	Email       string        `json:"email"`
	Gender      gender.Gender `json:"gender" gorm:"index"`
	SignedUpAt  time.Time     `json:"signed_up_at" gorm:"index"`
}

// RosterEntry is one admitted user on one event.
type RosterEntry struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	EventID  string `json:"event_id" gorm:"uniqueIndex:idx_roster_event_user,priority:1"`
	UserID   string `json:"user_id" gorm:"uniqueIndex:idx_roster_event_user,priority:2"`
	Attendee `gorm:"embedded"`
}

func (RosterEntry) TableName() string { return "roster_entries" }

// WaitlistEntry is one waiting user on one event. Entries are served in
// SignedUpAt order; ties fall back to ID (insertion order), then UserID.
type WaitlistEntry struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	EventID  string `json:"event_id" gorm:"uniqueIndex:idx_waitlist_event_user,priority:1"`
	UserID   string `json:"user_id" gorm:"uniqueIndex:idx_waitlist_event_user,priority:2"`
	Attendee `gorm:"embedded"`
}

func (WaitlistEntry) TableName() string { return "waitlist_entries" }
