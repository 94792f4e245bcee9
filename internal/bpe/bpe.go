// Package bpe holds the pair-frequency and merge-rule machinery of the
// vocabulary trainer: counting adjacent symbol pairs, selecting the most
// frequent one, and folding learned merges back into symbol sequences.
package bpe

// Pair is an ordered pair of adjacent symbols. Equality is structural, so a
// Pair serves both as a frequency-table key and as a merge-rule key.
type Pair struct {
	Left  string
	Right string
}

// Merged returns the symbol produced by folding the pair.
func (p Pair) Merged() string {
	return p.Left + p.Right
}

func lessPair(a, b Pair) bool {
	if a.Left != b.Left {
		return a.Left < b.Left
	}
	return a.Right < b.Right
}

// Counts maps adjacent symbol pairs to occurrence counts for one corpus
// pass. The zero value is not usable; allocate with make or Count.
type Counts map[Pair]uint64

// Count returns the adjacent-pair frequencies of symbols. Every window
// counts once, so overlapping occurrences each contribute. Sequences
// shorter than two symbols yield an empty table.
func Count(symbols []string) Counts {
	c := make(Counts)
	c.Observe(symbols)
	return c
}

// Observe adds every adjacent pair of symbols to the table.
func (c Counts) Observe(symbols []string) {
	for i := 0; i+1 < len(symbols); i++ {
		c[Pair{Left: symbols[i], Right: symbols[i+1]}]++
	}
}

// Merge folds other into c by key-wise summation.
func (c Counts) Merge(other Counts) {
	for p, n := range other {
		c[p] += n
	}
}

// Best returns the pair with the highest frequency. Ties go to the
// lexicographically smaller pair, left symbol compared first, so selection
// never depends on map iteration order. ok is false when no pair has
// positive frequency.
func (c Counts) Best() (best Pair, freq uint64, ok bool) {
	for p, n := range c {
		if n == 0 {
			continue
		}
		if !ok || n > freq || (n == freq && lessPair(p, best)) {
			best, freq, ok = p, n, true
		}
	}
	return best, freq, ok
}
