package tokfile

import (
	"strings"

	"github.com/emirpasic/gods/v2/trees/binaryheap"
)

// Entry is one decoded vocabulary item.
type Entry struct {
	Symbol string `json:"symbol"`
	Freq   uint64 `json:"frequency"`
}

// Entries returns the vocabulary decoded, in no particular order.
func (a *Artifact) Entries() ([]Entry, error) {
	out := make([]Entry, 0, len(a.Vocab))
	for sym, freq := range a.Vocab {
		decoded, err := DecodeSymbol(sym)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Symbol: decoded, Freq: freq})
	}
	return out, nil
}

// TopEntries returns the k highest-frequency entries, ordered by frequency
// descending then symbol ascending. k <= 0, or k larger than the
// vocabulary, returns every entry. A bounded min-heap keeps the work at
// O(n log k) regardless of vocabulary size.
func (a *Artifact) TopEntries(k int) ([]Entry, error) {
	entries, err := a.Entries()
	if err != nil {
		return nil, err
	}
	if k <= 0 || k > len(entries) {
		k = len(entries)
	}

	// The heap keeps its worst entry on top so exceeding entries can be
	// evicted cheaply: lower frequency is worse, and on equal frequency
	// the lexicographically larger symbol is worse.
	worstFirst := func(x, y Entry) int {
		if x.Freq != y.Freq {
			if x.Freq < y.Freq {
				return -1
			}
			return 1
		}
		return -strings.Compare(x.Symbol, y.Symbol)
	}
	heap := binaryheap.NewWith(worstFirst)
	for _, e := range entries {
		heap.Push(e)
		if heap.Size() > k {
			heap.Pop()
		}
	}

	out := make([]Entry, heap.Size())
	for i := len(out) - 1; i >= 0; i-- {
		e, _ := heap.Pop()
		out[i] = e
	}
	return out, nil
}
