// Package matching narrows an event's roster to mutually compatible
// candidates and ranks them by questionnaire compatibility.
package matching

import "github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"

// Person is the part of a profile the prefilter looks at.
type Person struct {
	ID         string            `json:"id"`
	Gender     gender.Gender     `json:"gender"`
	Preference gender.Preference `json:"preference"`
}

func (p Person) complete() bool {
	return p.Gender.Valid() && p.Preference.Valid()
}

// Filter returns the candidates that requester accepts and that accept
// requester back. A requester or candidate with no stated gender or
// preference never matches. candidates is not modified.
func Filter(requester Person, candidates []Person) []Person {
	out := make([]Person, 0, len(candidates))
	if !requester.complete() {
		return out
	}
	for _, c := range candidates {
		if c.ID == requester.ID || !c.complete() {
			continue
		}
		if gender.Mutual(requester.Gender, requester.Preference, c.Gender, c.Preference) {
			out = append(out, c)
		}
	}
	return out
}
