package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tokenthing/internal/corpus"
	"github.com/samcharles93/tokenthing/internal/logger"
	"github.com/samcharles93/tokenthing/internal/pretoken"
	"github.com/samcharles93/tokenthing/internal/trainer"
	"github.com/samcharles93/tokenthing/pkg/tokfile"
)

func trainCmd() *cli.Command {
	var (
		out       string
		vocabSize int64
		seqLen    int64
		workers   int64
		batchSize int64
	)

	flags := append(commonDataFlags(), configFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "output path for the .tokv vocabulary",
			Destination: &out,
		},
		&cli.Int64Flag{
			Name:        "vocab-size",
			Aliases:     []string{"n"},
			Usage:       "number of merges to learn",
			Value:       1024,
			Destination: &vocabSize,
		},
		&cli.Int64Flag{
			Name:        "sequence-length",
			Aliases:     []string{"seq-len"},
			Usage:       "chunk byte budget (0 = line-level processing)",
			Destination: &seqLen,
		},
		&cli.Int64Flag{
			Name:        "workers",
			Aliases:     []string{"j"},
			Usage:       "parallel scan workers (0 = NumCPU)",
			Destination: &workers,
		},
		&cli.Int64Flag{
			Name:        "batch-size",
			Usage:       "lines per worker batch",
			Destination: &batchSize,
		},
	)

	return &cli.Command{
		Name:  "train",
		Usage: "Learn a merge vocabulary from a text corpus",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := LoadConfig(configFile)
			applyTrainConfig(c, cfg, &dataDir, &out, &vocabSize, &seqLen, &workers, &batchSize)
			ctx = setupLogger(ctx)
			log := logger.FromContext(ctx)

			dir, err := resolveDataDir(dataDir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			files, err := discoverCorpusFiles(dir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: discover corpus: %v", err), 1)
			}
			if len(files) == 0 {
				return cli.Exit(fmt.Sprintf("error: no .txt files found in %s (run tokenthing fetch first)", dir), 1)
			}
			src, err := corpus.NewFileSource(files...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open corpus: %v", err), 1)
			}

			tr, err := trainer.New(trainer.Config{
				VocabSize:  int(vocabSize),
				ChunkBytes: int(seqLen),
				BatchSize:  int(batchSize),
				Workers:    int(workers),
			}, src)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: configure trainer: %v", err), 1)
			}

			log.Info("training started",
				"corpus_files", len(files),
				"vocab_size", vocabSize,
				"sequence_length", seqLen,
			)
			res, err := tr.Train(ctx)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: train: %v", err), 1)
			}

			artifact := tokfile.New(uuid.NewString(), pretoken.Pattern())
			for _, p := range res.Merges {
				artifact.AddMerge(p.Left, p.Right, res.Vocab[p.Merged()])
			}
			artifact.Stats = tokfile.Stats{
				Passes:     res.Passes,
				TargetSize: int(vocabSize),
				TrainMS:    res.Elapsed.Milliseconds(),
			}

			outPath, _, err := resolveTrainOut(dir, out)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: resolve output: %v", err), 1)
			}
			if err := tokfile.Save(outPath, artifact); err != nil {
				return cli.Exit(fmt.Sprintf("error: save vocabulary: %v", err), 1)
			}

			fmt.Printf("Learned %d merges in %d passes (%s)\n",
				len(res.Merges), res.Passes, res.Elapsed.Round(time.Millisecond))
			fmt.Printf("Vocabulary saved: %s\n", outPath)
			return nil
		},
	}
}
