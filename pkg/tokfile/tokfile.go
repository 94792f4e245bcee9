// Package tokfile implements the Tokenthing vocabulary file format.
//
// A .tokv file is a self-describing JSON document carrying an ordered merge
// list, per-symbol frequencies, and enough metadata to reproduce the run
// that learned them. Symbols are stored byte-encoded so whitespace and
// control bytes survive the space-separated merge lines and JSON keys.
package tokfile

import (
	"fmt"
	"strings"
	"time"
)

const (
	// FormatName identifies the file format. It never changes.
	FormatName = "tokenthing/vocab"

	// CurrentVersion is the newest file version this package writes.
	CurrentVersion = 1

	// Ext is the conventional file extension.
	Ext = ".tokv"
)

// Stats describes the training run that produced the artifact.
type Stats struct {
	Passes     int   `json:"passes"`
	TargetSize int   `json:"target_size"`
	TrainMS    int64 `json:"train_ms"`
}

// Artifact is the in-memory form of a vocabulary file. Merges are
// "left right" lines in rank order; Vocab maps each merged symbol to the
// frequency it won with. Both hold byte-encoded symbols.
type Artifact struct {
	Format       string            `json:"format"`
	Version      int               `json:"version"`
	CreatedAt    time.Time         `json:"created_at"`
	RunID        string            `json:"run_id"`
	Pretokenizer string            `json:"pretokenizer"`
	Merges       []string          `json:"merges"`
	Vocab        map[string]uint64 `json:"vocab"`
	Stats        Stats             `json:"stats"`
}

// New returns an empty artifact for the given run. pretokenizer is the
// classification pattern the symbols were split with.
func New(runID, pretokenizer string) *Artifact {
	return &Artifact{
		Format:       FormatName,
		Version:      CurrentVersion,
		CreatedAt:    time.Now().UTC(),
		RunID:        runID,
		Pretokenizer: pretokenizer,
		Merges:       []string{},
		Vocab:        make(map[string]uint64),
	}
}

// AddMerge appends one learned merge in rank order and records the merged
// symbol's winning frequency.
func (a *Artifact) AddMerge(left, right string, freq uint64) {
	a.Merges = append(a.Merges, EncodeSymbol(left)+" "+EncodeSymbol(right))
	a.Vocab[EncodeSymbol(left+right)] = freq
}

// MergePairs decodes the merge list back into (left, right) pairs in rank
// order.
func (a *Artifact) MergePairs() ([][2]string, error) {
	pairs := make([][2]string, 0, len(a.Merges))
	for i, line := range a.Merges {
		fields := strings.Split(line, " ")
		if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
			return nil, fmt.Errorf("%w: merge %d: %q", ErrCorruptFile, i, line)
		}
		left, err := DecodeSymbol(fields[0])
		if err != nil {
			return nil, fmt.Errorf("merge %d: %w", i, err)
		}
		right, err := DecodeSymbol(fields[1])
		if err != nil {
			return nil, fmt.Errorf("merge %d: %w", i, err)
		}
		pairs = append(pairs, [2]string{left, right})
	}
	return pairs, nil
}

// Validate checks the artifact's self-description and symbol encoding.
func (a *Artifact) Validate() error {
	if a.Format != FormatName {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, a.Format)
	}
	if a.Version < 1 || a.Version > CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, a.Version)
	}
	if _, err := a.MergePairs(); err != nil {
		return err
	}
	for sym := range a.Vocab {
		if _, err := DecodeSymbol(sym); err != nil {
			return fmt.Errorf("vocab symbol %q: %w", sym, err)
		}
	}
	return nil
}
