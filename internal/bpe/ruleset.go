package bpe

import (
	"errors"
	"fmt"
)

// ErrDuplicateRule is returned by Add when a pair is already in the set.
var ErrDuplicateRule = errors.New("duplicate merge rule")

// Ruleset is the ordered list of learned merges. A rule's rank is its
// append position; lower rank means learned earlier. Once added, a pair is
// never removed or re-ranked.
type Ruleset struct {
	rules []Pair
	rank  map[Pair]int
}

// NewRuleset returns an empty Ruleset.
func NewRuleset() *Ruleset {
	return &Ruleset{rank: make(map[Pair]int)}
}

// RulesetFromPairs builds a Ruleset from ordered (left, right) pairs, such
// as a deserialized merge list.
func RulesetFromPairs(pairs [][2]string) (*Ruleset, error) {
	r := NewRuleset()
	for i, p := range pairs {
		if err := r.Add(Pair{Left: p[0], Right: p[1]}); err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
	}
	return r, nil
}

// Add appends p with the next rank. Adding a pair twice is an error.
func (r *Ruleset) Add(p Pair) error {
	if _, ok := r.rank[p]; ok {
		return fmt.Errorf("%w: %q %q", ErrDuplicateRule, p.Left, p.Right)
	}
	r.rank[p] = len(r.rules)
	r.rules = append(r.rules, p)
	return nil
}

// Len reports the number of learned rules.
func (r *Ruleset) Len() int {
	return len(r.rules)
}

// Contains reports whether p has been learned.
func (r *Ruleset) Contains(p Pair) bool {
	_, ok := r.rank[p]
	return ok
}

// Rank returns p's rank, if learned.
func (r *Ruleset) Rank(p Pair) (int, bool) {
	n, ok := r.rank[p]
	return n, ok
}

// Pairs returns the rules in rank order. The slice is a copy.
func (r *Ruleset) Pairs() []Pair {
	return append([]Pair(nil), r.rules...)
}

// Apply folds the learned merges into symbols: repeatedly merge the
// leftmost adjacent pair that is in the set, until no adjacent pair
// matches. Membership decides applicability; position alone breaks ties.
// After a merge the scan resumes one position to the left of the merge
// site, which is equivalent to restarting from the front: every pair
// further left was already rejected and neither of its symbols changed.
func (r *Ruleset) Apply(symbols []string) []string {
	if r.Len() == 0 || len(symbols) < 2 {
		return symbols
	}
	out := append([]string(nil), symbols...)
	i := 0
	for i+1 < len(out) {
		if _, ok := r.rank[Pair{Left: out[i], Right: out[i+1]}]; !ok {
			i++
			continue
		}
		out[i] += out[i+1]
		out = append(out[:i+1], out[i+2:]...)
		if i > 0 {
			i--
		}
	}
	return out
}
