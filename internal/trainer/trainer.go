// Package trainer runs the merge-learning loop: one full corpus pass per
// merge, selecting the most frequent adjacent pair each time, until the
// vocabulary target is reached or no pair repeats.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/samcharles93/tokenthing/internal/bpe"
	"github.com/samcharles93/tokenthing/internal/chunker"
	"github.com/samcharles93/tokenthing/internal/corpus"
	"github.com/samcharles93/tokenthing/internal/logger"
)

// State is the trainer's position in its pass cycle.
type State int

const (
	// Scanning runs one full corpus pass to gather pair frequencies.
	Scanning State = iota
	// Selecting picks the most frequent pair from the pass's table.
	Selecting
	// Committing appends the winning pair and updates the vocabulary.
	Committing
	// Done is terminal: target reached or no pair left to merge.
	Done
)

func (s State) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case Selecting:
		return "selecting"
	case Committing:
		return "committing"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrVocabSize is returned by New for non-positive vocabulary targets.
var ErrVocabSize = errors.New("vocab size must be positive")

// Config bounds one training run.
type Config struct {
	// VocabSize is the number of merges to learn.
	VocabSize int
	// ChunkBytes caps processing units in bytes; zero trains on whole
	// lines instead of packed chunks.
	ChunkBytes int
	// BatchSize and Workers tune the per-pass scan; zero picks defaults.
	BatchSize int
	Workers   int
}

// Result is the outcome of a completed run.
type Result struct {
	// Merges is the learned merge list in rank order.
	Merges []bpe.Pair
	// Vocab maps each merged symbol to the frequency it won with.
	Vocab map[string]uint64
	// Passes is the number of full corpus passes performed.
	Passes int
	// Elapsed is the wall time of the run.
	Elapsed time.Duration
}

// Trainer owns the merge list and vocabulary across passes. A Trainer is
// single-use: construct, Train once, read the Result.
type Trainer struct {
	cfg    Config
	src    corpus.Source
	rules  *bpe.Ruleset
	vocab  map[string]uint64
	passes int
	state  State
}

// New validates cfg up front so a run can never stall on a budget that
// cannot make progress.
func New(cfg Config, src corpus.Source) (*Trainer, error) {
	if cfg.VocabSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrVocabSize, cfg.VocabSize)
	}
	if cfg.ChunkBytes != 0 && cfg.ChunkBytes < chunker.MinChunkBytes {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", chunker.ErrBudgetTooSmall, cfg.ChunkBytes, chunker.MinChunkBytes)
	}
	if src == nil {
		return nil, corpus.ErrNoFiles
	}
	return &Trainer{
		cfg:   cfg,
		src:   src,
		rules: bpe.NewRuleset(),
		vocab: make(map[string]uint64),
	}, nil
}

// State reports the trainer's current state.
func (t *Trainer) State() State {
	return t.state
}

// Train runs passes until Done and returns the learned merges and
// vocabulary. Each pass rescans the whole corpus with all merges learned so
// far applied. Cancellation is honored between passes and inside a pass;
// a cancelled run returns no partial result.
func (t *Trainer) Train(ctx context.Context) (*Result, error) {
	log := logger.FromContext(ctx)
	scanner := &corpus.Scanner{
		ChunkBytes: t.cfg.ChunkBytes,
		BatchSize:  t.cfg.BatchSize,
		Workers:    t.cfg.Workers,
	}
	start := time.Now()

	for t.state != Done {
		t.state = Scanning
		passStart := time.Now()
		counts, err := scanner.Scan(ctx, t.src, t.rules)
		if err != nil {
			return nil, fmt.Errorf("pass %d: %w", t.passes+1, err)
		}
		t.passes++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t.state = Selecting
		best, freq, ok := counts.Best()
		if !ok || t.rules.Len() >= t.cfg.VocabSize {
			t.state = Done
			break
		}

		t.state = Committing
		if err := t.rules.Add(best); err != nil {
			return nil, fmt.Errorf("pass %d: %w", t.passes, err)
		}
		t.vocab[best.Merged()] = freq
		log.Info("merge committed",
			"pass", t.passes,
			"rank", t.rules.Len()-1,
			"left", best.Left,
			"right", best.Right,
			"frequency", freq,
			"elapsed", time.Since(passStart).Round(time.Millisecond),
		)
	}

	res := &Result{
		Merges:  t.rules.Pairs(),
		Vocab:   maps.Clone(t.vocab),
		Passes:  t.passes,
		Elapsed: time.Since(start),
	}
	log.Info("training complete",
		"merges", len(res.Merges),
		"target", t.cfg.VocabSize,
		"passes", res.Passes,
		"elapsed", res.Elapsed.Round(time.Millisecond),
	)
	return res, nil
}
