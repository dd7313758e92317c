package models

import (
	"time"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
)

// Event carries the capacity limits and the cached per-gender counters.
// The counters must always be derivable from the roster.
type Event struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	Title            string    `json:"title"`
	StartsAt         time.Time `json:"starts_at"`
	MenSpots         int       `json:"men_spots"`
	WomenSpots       int       `json:"women_spots"`
	MenSignupCount   int       `json:"men_signup_count"`
	WomenSignupCount int       `json:"women_signup_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Spots returns the spot limit for g. ok is false when g has no partition.
func (e Event) Spots(g gender.Gender) (spots int, ok bool) {
	switch g {
	case gender.Male:
		return e.MenSpots, true
	case gender.Female:
		return e.WomenSpots, true
	}
	return 0, false
}

// Count returns the cached signup counter for g.
func (e Event) Count(g gender.Gender) int {
	switch g {
	case gender.Male:
		return e.MenSignupCount
	case gender.Female:
		return e.WomenSignupCount
	}
	return 0
}

// WithCount returns a copy of e with the counter for g replaced.
func (e Event) WithCount(g gender.Gender, n int) Event {
	switch g {
	case gender.Male:
		e.MenSignupCount = n
	case gender.Female:
		e.WomenSignupCount = n
	}
	return e
}
