package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tokenthing/internal/dataset"
)

func fetchCmd() *cli.Command {
	var (
		names       []string
		maxRows     int64
		concurrency int64
	)

	flags := append(commonDataFlags(), configFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.StringSliceFlag{
			Name:        "dataset",
			Aliases:     []string{"ds"},
			Usage:       "Hugging Face dataset name (repeatable)",
			Destination: &names,
		},
		&cli.Int64Flag{
			Name:        "max-rows",
			Usage:       "cap rows fetched per dataset (0 = all)",
			Destination: &maxRows,
		},
		&cli.Int64Flag{
			Name:        "concurrency",
			Usage:       "parallel dataset downloads",
			Value:       2,
			Destination: &concurrency,
		},
	)

	return &cli.Command{
		Name:  "fetch",
		Usage: "Download Hugging Face datasets as local text corpora",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := LoadConfig(configFile)
			applyFetchConfig(c, cfg, &dataDir, &names)
			ctx = setupLogger(ctx)

			if len(names) == 0 {
				return cli.Exit("error: no datasets named (use --dataset or hf_dataset_names in config)", 1)
			}
			dir := strings.TrimSpace(dataDir)
			if dir == "" {
				dir = strings.TrimSpace(os.Getenv(envTokenthingDataDir))
			}
			if dir == "" {
				dir = filepath.Join(".", "data")
			}

			client := dataset.NewClient()
			client.MaxRows = int(maxRows)
			client.Concurrency = int(concurrency)

			paths, err := client.FetchAll(ctx, names, dir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: fetch: %v", err), 1)
			}

			fmt.Printf("Fetched %d dataset(s) into %s:\n", len(paths), dir)
			for _, p := range paths {
				fmt.Printf("  %s\n", filepath.Base(p))
			}
			return nil
		},
	}
}
