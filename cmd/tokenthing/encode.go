package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tokenthing/internal/bpe"
	"github.com/samcharles93/tokenthing/internal/pretoken"
	"github.com/samcharles93/tokenthing/pkg/tokfile"
)

func encodeCmd() *cli.Command {
	var (
		text   string
		asJSON bool
	)

	flags := append(commonVocabFlags(),
		&cli.StringFlag{
			Name:        "text",
			Aliases:     []string{"t"},
			Usage:       "text to encode (default: read stdin)",
			Destination: &text,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "emit symbols as a JSON array",
			Destination: &asJSON,
		},
	)

	return &cli.Command{
		Name:  "encode",
		Usage: "Split text into symbols with a trained vocabulary",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			_ = ctx

			path, err := resolveVocabPath(vocabPath, os.Stdin, os.Stderr)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: resolve vocabulary: %v", err), 1)
			}
			artifact, err := tokfile.Load(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load vocabulary: %v", err), 1)
			}
			pairs, err := artifact.MergePairs()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: decode merges: %v", err), 1)
			}
			rules, err := bpe.RulesetFromPairs(pairs)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: build ruleset: %v", err), 1)
			}

			input := text
			if input == "" {
				raw, err := io.ReadAll(os.Stdin)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: read stdin: %v", err), 1)
				}
				input = string(raw)
			}

			symbols := rules.Apply(pretoken.Split(input))
			if symbols == nil {
				symbols = []string{}
			}

			if asJSON {
				if err := json.NewEncoder(os.Stdout).Encode(symbols); err != nil {
					return cli.Exit(fmt.Sprintf("error: encode output: %v", err), 1)
				}
				return nil
			}
			for i, s := range symbols {
				if i > 0 {
					fmt.Print(" ")
				}
				fmt.Printf("%q", s)
			}
			fmt.Println()
			_, _ = fmt.Fprintf(os.Stderr, "%d symbols\n", len(symbols))
			return nil
		},
	}
}
