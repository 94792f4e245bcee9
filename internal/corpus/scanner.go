package corpus

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/tokenthing/internal/bpe"
	"github.com/samcharles93/tokenthing/internal/chunker"
	"github.com/samcharles93/tokenthing/internal/logger"
	"github.com/samcharles93/tokenthing/internal/pretoken"
)

// DefaultBatchSize is the number of processing units buffered per batch
// when the caller does not choose one.
const DefaultBatchSize = 64

// Scanner performs one full counting pass over a corpus: each unit is
// pretokenized, folded through the learned merges, and its adjacent pairs
// summed into a single pass-level table. Peak memory is proportional to the
// batch size, never the corpus size.
type Scanner struct {
	// ChunkBytes caps the processing unit size in bytes. Lines are packed
	// into chunks of at most this size; zero processes whole lines instead.
	ChunkBytes int
	// BatchSize is the number of units buffered before they are counted
	// and discarded. Zero means DefaultBatchSize.
	BatchSize int
	// Workers is the per-batch fan-out. Zero means one per CPU; the table
	// is identical for every worker count.
	Workers int
}

// Scan reads src once and returns the aggregated pair-frequency table for
// the pass, with rules applied to every unit first. Any read error aborts
// the pass; no partial table is returned.
func (s *Scanner) Scan(ctx context.Context, src Source, rules *bpe.Ruleset) (bpe.Counts, error) {
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	var packer *chunker.Packer
	if s.ChunkBytes > 0 {
		p, err := chunker.NewPacker(s.ChunkBytes)
		if err != nil {
			return nil, err
		}
		packer = p
	}

	r, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = r.Close() }()

	total := make(bpe.Counts)
	batch := make([]string, 0, batchSize)
	units := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := process(ctx, workers, batch, rules, total); err != nil {
			return err
		}
		units += len(batch)
		batch = batch[:0]
		return nil
	}
	push := func(unit string) error {
		batch = append(batch, unit)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	}

	for {
		line, rerr := r.Next()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, rerr
		}
		if packer == nil {
			if err := push(line); err != nil {
				return nil, err
			}
			continue
		}
		for _, chunk := range packer.Push(line) {
			if err := push(chunk); err != nil {
				return nil, err
			}
		}
	}
	if packer != nil {
		if tail, ok := packer.Flush(); ok {
			if err := push(tail); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, fmt.Errorf("close corpus: %w", err)
	}

	logger.FromContext(ctx).Debug("corpus pass complete", "units", units, "pairs", len(total))
	return total, nil
}

// process counts one batch into total. Units are strided across workers,
// each folding into a worker-local table; the locals are summed after the
// group finishes, so no table is shared while counting.
func process(ctx context.Context, workers int, units []string, rules *bpe.Ruleset, total bpe.Counts) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if workers > len(units) {
		workers = len(units)
	}
	if workers <= 1 {
		for _, unit := range units {
			total.Observe(rules.Apply(pretoken.Split(unit)))
		}
		return nil
	}

	locals := make([]bpe.Counts, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			local := make(bpe.Counts)
			for i := w; i < len(units); i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				local.Observe(rules.Apply(pretoken.Split(units[i])))
			}
			locals[w] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, local := range locals {
		total.Merge(local)
	}
	return nil
}
