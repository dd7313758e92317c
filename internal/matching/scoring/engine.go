// Package scoring computes deterministic pairwise compatibility scores from
// questionnaire answers.
//
// A score is the weighted geometric mean of per-question synergy values,
// scaled to (0, 100]. Every synergy is clamped to [0.01, 1] first so one bad
// answer cannot zero the whole score.
package scoring

import (
	"cmp"
	"math"
	"slices"
)

// Candidate is one scored party.
type Candidate struct {
	ID      string
	Answers map[string]string
}

// Result is a candidate's score.
type Result struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Engine scores answer sets against its tables. It holds no mutable state.
type Engine struct {
	tables *Tables
}

func NewEngine(t *Tables) *Engine {
	return &Engine{tables: t}
}

func (e *Engine) Tables() *Tables { return e.tables }

// Compatibility scores a against b. The result is symmetric in a and b.
func (e *Engine) Compatibility(a, b map[string]string) float64 {
	var logSum, weightSum float64
	for _, key := range e.tables.keys {
		q := e.tables.questions[key]
		s := clamp(q.value(a[key], b[key]))
		logSum += q.weight * math.Log(s)
		weightSum += q.weight
	}
	if weightSum == 0 {
		return NeutralSynergy * 100
	}
	return math.Exp(logSum/weightSum) * 100
}

// Score returns every candidate's compatibility with the requester, highest
// first. Equal scores are ordered by candidate ID.
func (e *Engine) Score(requester map[string]string, candidates []Candidate) []Result {
	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, Result{ID: c.ID, Score: e.Compatibility(requester, c.Answers)})
	}
	slices.SortStableFunc(results, func(x, y Result) int {
		if c := cmp.Compare(y.Score, x.Score); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return results
}
