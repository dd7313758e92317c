package models

import (
	"time"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
)

// UserProfile is the capacity-relevant view of a user.
type UserProfile struct {
	ID             string            `json:"id" gorm:"primaryKey"`
	DisplayName    string            `json:"display_name"`
	Email          string            `json:"email"`
	Gender         gender.Gender     `json:"gender"`
	Preference     gender.Preference `json:"preference"`
	DatesRemaining int               `json:"dates_remaining"`
	LatestEventID  string            `json:"latest_event_id"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// LatestEvent is the denormalised "most recent event" record written after a
// promotion. It is advisory and never the source of truth.
type LatestEvent struct {
	UserID   string    `json:"user_id" gorm:"primaryKey"`
	EventID  string    `json:"event_id"`
	Title    string    `json:"title"`
	StartsAt time.Time `json:"starts_at"`
	JoinedAt time.Time `json:"joined_at"`
}
