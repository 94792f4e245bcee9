package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/samcharles93/tokenthing/pkg/tokfile"
)

const (
	envTokenthingDataDir = "TOKENTHING_DATA_DIR"
	envTokenthingOutDir  = "TOKENTHING_OUT_DIR"
)

// stdinIsTTY is a small seam for tests.
var stdinIsTTY = isTTY

// resolveDataDir picks the corpus directory: the flag (or config) value
// first, then the environment.
func resolveDataDir(dirFlag string) (string, error) {
	dir := strings.TrimSpace(dirFlag)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(envTokenthingDataDir))
	}
	if dir == "" {
		return "", fmt.Errorf("--data-dir is required unless %s is set", envTokenthingDataDir)
	}
	return filepath.Clean(dir), nil
}

func resolveTrainOut(corpusDir, outFlag string) (string, bool, error) {
	outFlag = strings.TrimSpace(outFlag)
	if outFlag != "" {
		outPath := filepath.Clean(outFlag)
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return "", false, err
		}
		return outPath, false, nil
	}

	base := filepath.Base(filepath.Clean(corpusDir))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", true, fmt.Errorf("invalid corpus directory: %q", corpusDir)
	}

	outDir := strings.TrimSpace(os.Getenv(envTokenthingOutDir))
	if outDir == "" {
		outDir = filepath.Join(".", "out")
	}

	outPath := filepath.Join(outDir, base+tokfile.Ext)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", true, err
	}
	return outPath, true, nil
}

func resolveVocabPath(vocabFlag string, stdin io.Reader, stderr io.Writer) (string, error) {
	vocabFlag = strings.TrimSpace(vocabFlag)
	if vocabFlag != "" {
		return filepath.Clean(vocabFlag), nil
	}

	outDir := strings.TrimSpace(os.Getenv(envTokenthingOutDir))
	if outDir == "" {
		outDir = filepath.Join(".", "out")
	}

	vocabs, err := discoverVocabs(outDir)
	if err != nil {
		return "", err
	}
	switch len(vocabs) {
	case 0:
		return "", fmt.Errorf("no %s files found in %s", tokfile.Ext, outDir)
	case 1:
		_, _ = fmt.Fprintf(stderr, "using vocabulary %s\n", vocabs[0])
		return vocabs[0], nil
	default:
		if !stdinIsTTY() {
			return "", fmt.Errorf(
				"multiple vocabularies found in %s but stdin is not interactive; set --vocab",
				outDir,
			)
		}
		return selectVocabInteractively(outDir, vocabs, stdin, stderr)
	}
}

func discoverByExt(dir, ext string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("directory is empty")
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func discoverCorpusFiles(dir string) ([]string, error) {
	return discoverByExt(dir, ".txt")
}

func discoverVocabs(dir string) ([]string, error) {
	return discoverByExt(dir, tokfile.Ext)
}

func selectVocabInteractively(outDir string, vocabs []string, stdin io.Reader, stderr io.Writer) (string, error) {
	if len(vocabs) == 0 {
		return "", fmt.Errorf("no vocabularies available in %s", outDir)
	}

	_, _ = fmt.Fprintf(stderr, "select a vocabulary from %s\n", outDir)
	for i, v := range vocabs {
		_, _ = fmt.Fprintf(stderr, "%d. %s\n", i+1, vocabDisplayName(outDir, v))
	}

	reader := bufio.NewReader(stdin)
	for {
		_, _ = fmt.Fprintf(stderr, "enter selection [1-%d]: ", len(vocabs))
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no selection provided on stdin; set --vocab")
			}
			continue
		}

		idx, convErr := strconv.Atoi(line)
		if convErr != nil || idx < 1 || idx > len(vocabs) {
			_, _ = fmt.Fprintf(stderr, "invalid selection %q\n", line)
			if errors.Is(err, io.EOF) {
				return "", errors.New("invalid selection provided on stdin; set --vocab")
			}
			continue
		}
		return vocabs[idx-1], nil
	}
}

func vocabDisplayName(outDir, path string) string {
	rel, err := filepath.Rel(outDir, path)
	if err != nil || rel == "." {
		return filepath.Base(path)
	}
	return rel
}

func isTTY() bool {
	st, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}
