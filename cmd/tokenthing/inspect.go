package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tokenthing/pkg/tokfile"
)

func inspectCmd() *cli.Command {
	var (
		showMerges bool
		showRaw    bool
		topLimit   int64
	)

	flags := append(commonVocabFlags(),
		&cli.BoolFlag{
			Name:        "merges",
			Usage:       "print the merge list in rank order",
			Destination: &showMerges,
		},
		&cli.BoolFlag{
			Name:        "raw",
			Usage:       "print the raw artifact JSON",
			Destination: &showRaw,
		},
		&cli.Int64Flag{
			Name:        "top",
			Usage:       "vocabulary entries to list (0 = all)",
			Value:       20,
			Destination: &topLimit,
		},
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect the contents of a .tokv vocabulary file",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			_ = ctx

			path, err := resolveVocabPath(vocabPath, os.Stdin, os.Stderr)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: resolve vocabulary: %v", err), 1)
			}
			stat, err := os.Stat(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: stat %q: %v", path, err), 1)
			}
			artifact, err := tokfile.Load(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load vocabulary: %v", err), 1)
			}

			fmt.Printf("Tokenthing Inspect: %s\n", path)
			fmt.Printf("File: %s (%s)\n", filepath.Base(path), formatBytes(uint64(stat.Size())))

			section("Artifact")
			row("format", artifact.Format)
			rowInt("version", artifact.Version)
			row("run_id", artifact.RunID)
			row("created_at", artifact.CreatedAt.Format(time.RFC3339))
			row("pretokenizer", artifact.Pretokenizer)
			rowInt("merges", len(artifact.Merges))
			rowInt("vocab_size", len(artifact.Vocab))

			section("Training")
			rowInt("passes", artifact.Stats.Passes)
			rowInt("target_size", artifact.Stats.TargetSize)
			row("train_time", (time.Duration(artifact.Stats.TrainMS) * time.Millisecond).String())

			entries, err := artifact.TopEntries(int(topLimit))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: decode vocabulary: %v", err), 1)
			}
			section("Top Vocabulary")
			for _, e := range entries {
				fmt.Printf("%8d  %q\n", e.Freq, e.Symbol)
			}
			if topLimit > 0 && len(entries) < len(artifact.Vocab) {
				fmt.Printf("... (%d shown of %d)\n", len(entries), len(artifact.Vocab))
			}

			if showMerges {
				pairs, err := artifact.MergePairs()
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: decode merges: %v", err), 1)
				}
				section("Merges")
				for i, p := range pairs {
					fmt.Printf("%6d  %q + %q -> %q\n", i, p[0], p[1], p[0]+p[1])
				}
			}

			if showRaw {
				raw, err := os.ReadFile(path)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: read %q: %v", path, err), 1)
				}
				section("Raw JSON")
				fmt.Println(string(raw))
			}
			return nil
		},
	}
}

func section(title string) {
	line := strings.Repeat("-", len(title)+8)
	fmt.Printf("\n%s\n--- %s ---\n%s\n", line, title, line)
}

func row(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("%-16s %s\n", label+":", value)
}

func rowInt(label string, v int) {
	if v == 0 {
		return
	}
	row(label, fmt.Sprintf("%d", v))
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GiB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
