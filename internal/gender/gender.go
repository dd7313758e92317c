// Package gender models the closed gender and preference vocabularies used by
// capacity partitioning and match prefiltering.
package gender

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownGender     = errors.New("unknown gender")
	ErrUnknownPreference = errors.New("unknown preference")
)

// Gender is a user's stated gender. The zero value means "not stated".
type Gender string

const (
	Unknown Gender = ""
	Male    Gender = "male"
	Female  Gender = "female"
	Other   Gender = "other"
)

// Genders lists every stated gender value.
var Genders = []Gender{Male, Female, Other}

// ParseGender normalises free-form input ("Male", " men ", "F") to a Gender.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "man", "men", "m":
		return Male, nil
	case "female", "woman", "women", "f":
		return Female, nil
	case "other", "nonbinary", "non-binary":
		return Other, nil
	case "":
		return Unknown, nil
	default:
		return Unknown, fmt.Errorf("%w: %q", ErrUnknownGender, s)
	}
}

// Normalize returns the canonical form of g, or Unknown when g is not part of
// the vocabulary. It tolerates rows written with inconsistent casing.
func Normalize(g Gender) Gender {
	parsed, err := ParseGender(string(g))
	if err != nil {
		return Unknown
	}
	return parsed
}

// Valid reports whether g is a stated gender.
func (g Gender) Valid() bool {
	return g == Male || g == Female || g == Other
}

func (g Gender) String() string { return string(g) }

// Preference is the set of genders a user wants to be matched with.
type Preference string

const (
	NoneStated   Preference = ""
	Men          Preference = "men"
	Women        Preference = "women"
	Both         Preference = "both"
	OtherGenders Preference = "other"
	NoPreference Preference = "no_preference"
)

// ParsePreference normalises free-form preference input.
func ParsePreference(s string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "men", "male", "man":
		return Men, nil
	case "women", "female", "woman":
		return Women, nil
	case "both":
		return Both, nil
	case "other":
		return OtherGenders, nil
	case "no_preference", "no preference", "any", "anyone":
		return NoPreference, nil
	case "":
		return NoneStated, nil
	default:
		return NoneStated, fmt.Errorf("%w: %q", ErrUnknownPreference, s)
	}
}

// Valid reports whether p is a stated preference.
func (p Preference) Valid() bool {
	switch p {
	case Men, Women, Both, OtherGenders, NoPreference:
		return true
	}
	return false
}

func (p Preference) String() string { return string(p) }

// Accepts reports whether a user holding preference p is open to g.
// "both" covers men and women only; "other" is restricted to Other.
func (p Preference) Accepts(g Gender) bool {
	if !g.Valid() {
		return false
	}
	switch p {
	case Men:
		return g == Male
	case Women:
		return g == Female
	case Both:
		return g == Male || g == Female
	case OtherGenders:
		return g == Other
	case NoPreference:
		return true
	}
	return false
}

// Mutual reports whether two users accept each other. Both directions must hold.
func Mutual(aGender Gender, aPref Preference, bGender Gender, bPref Preference) bool {
	return aPref.Accepts(bGender) && bPref.Accepts(aGender)
}
