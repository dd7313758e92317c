package scoring

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// NeutralSynergy is used for missing answers and unlisted pairs.
const NeutralSynergy = 0.5

const (
	minSynergy = 0.01
	maxSynergy = 1.0
)

var (
	ErrUnknownQuestion = errors.New("unknown question")
	ErrUnknownAnswer   = errors.New("answer not in vocabulary")
	ErrInvalidTable    = errors.New("invalid scoring table")
)

type pair struct{ a, b string }

func pairOf(a, b string) pair {
	if b < a {
		a, b = b, a
	}
	return pair{a, b}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type question struct {
	weight  float64
	answers map[string]struct{}
	synergy map[pair]float64
}

// value returns the synergy of two raw answers. Missing answers and unlisted
// pairs are neutral; identical answers are a perfect match.
func (q *question) value(a, b string) float64 {
	a, b = normalize(a), normalize(b)
	if a == "" || b == "" {
		return NeutralSynergy
	}
	if a == b {
		return maxSynergy
	}
	if v, ok := q.synergy[pairOf(a, b)]; ok {
		return v
	}
	return NeutralSynergy
}

// Tables holds the weight and synergy tables. A built Tables is never
// mutated and can be shared between goroutines.
type Tables struct {
	keys      []string
	questions map[string]*question
}

// Keys returns the question keys in scoring order.
func (t *Tables) Keys() []string { return slices.Clone(t.keys) }

// Weight returns the weight of key, or 0 when key is unknown.
func (t *Tables) Weight(key string) float64 {
	if q, ok := t.questions[key]; ok {
		return q.weight
	}
	return 0
}

// Answers returns the sorted vocabulary of key.
func (t *Tables) Answers(key string) []string {
	q, ok := t.questions[key]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(q.answers))
	for a := range q.answers {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// Synergy returns the clamped synergy for two answers to key.
func (t *Tables) Synergy(key, a, b string) float64 {
	q, ok := t.questions[key]
	if !ok {
		return clamp(NeutralSynergy)
	}
	return clamp(q.value(a, b))
}

// Validate normalises answers and checks them against the vocabulary.
func (t *Tables) Validate(answers map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(answers))
	for key, value := range answers {
		k := normalize(key)
		q, ok := t.questions[k]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownQuestion, key)
		}
		v := normalize(value)
		if _, ok := q.answers[v]; !ok {
			return nil, fmt.Errorf("%w: %q for %q", ErrUnknownAnswer, value, key)
		}
		out[k] = v
	}
	return out, nil
}

func clamp(v float64) float64 {
	return min(max(v, minSynergy), maxSynergy)
}

// Builder assembles Tables.
type Builder struct {
	questions map[string]*question
	errs      []error
}

func NewBuilder() *Builder {
	return &Builder{questions: make(map[string]*question)}
}

// Question declares key with a positive weight and its answer vocabulary.
func (b *Builder) Question(key string, weight float64, answers ...string) *Builder {
	k := normalize(key)
	switch {
	case k == "" || strings.Contains(k, "."):
		b.errs = append(b.errs, fmt.Errorf("question key %q must be non-empty and dot free", key))
		return b
	case weight <= 0:
		b.errs = append(b.errs, fmt.Errorf("question %q: weight must be positive, got %v", k, weight))
		return b
	case len(answers) == 0:
		b.errs = append(b.errs, fmt.Errorf("question %q: no answers", k))
		return b
	}

	q := &question{
		weight:  weight,
		answers: make(map[string]struct{}, len(answers)),
		synergy: make(map[pair]float64),
	}
	for _, a := range answers {
		q.answers[normalize(a)] = struct{}{}
	}
	b.questions[k] = q
	return b
}

// Pair sets the synergy of two different answers to key.
func (b *Builder) Pair(key, x, y string, value float64) *Builder {
	k := normalize(key)
	q, ok := b.questions[k]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("pair for undeclared question %q", key))
		return b
	}
	x, y = normalize(x), normalize(y)
	_, okX := q.answers[x]
	_, okY := q.answers[y]
	switch {
	case !okX || !okY:
		b.errs = append(b.errs, fmt.Errorf("question %q: pair (%q, %q) outside vocabulary", k, x, y))
	case x == y:
		b.errs = append(b.errs, fmt.Errorf("question %q: self pair %q is fixed at 1", k, x))
	case value < 0 || value > 1:
		b.errs = append(b.errs, fmt.Errorf("question %q: synergy %v outside [0,1]", k, value))
	default:
		q.synergy[pairOf(x, y)] = value
	}
	return b
}

func (b *Builder) Build() (*Tables, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, errors.Join(b.errs...))
	}
	if len(b.questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidTable)
	}
	t := &Tables{questions: make(map[string]*question, len(b.questions))}
	for k, q := range b.questions {
		t.questions[k] = q
		t.keys = append(t.keys, k)
	}
	slices.Sort(t.keys)
	b.questions = make(map[string]*question)
	return t, nil
}
