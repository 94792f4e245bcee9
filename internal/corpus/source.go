// Package corpus streams line-oriented text corpora and drives full
// pair-counting passes over them. Sources are reopenable so the trainer can
// run one pass per merge without holding the corpus in memory.
package corpus

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrNoFiles is returned when a source resolves to zero corpus files.
var ErrNoFiles = errors.New("no corpus files")

// LineReader yields corpus lines in order, without their trailing newline.
// Next returns io.EOF once the corpus is exhausted.
type LineReader interface {
	Next() (string, error)
	Close() error
}

// Source is a reopenable corpus. Every Open yields the same lines in the
// same order, one reader per training pass.
type Source interface {
	Open() (LineReader, error)
}

// FileSource reads one or more text files in path order.
type FileSource struct {
	paths []string
}

// NewFileSource returns a FileSource over the given files.
func NewFileSource(paths ...string) (*FileSource, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}
	return &FileSource{paths: append([]string(nil), paths...)}, nil
}

// Paths returns the files the source reads, in order.
func (s *FileSource) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Open returns a reader over the concatenated files.
func (s *FileSource) Open() (LineReader, error) {
	return &fileReader{paths: s.paths}, nil
}

// useMmap gates the mmap fast path so tests can force the buffered
// fallback.
var useMmap = true

// fileReader iterates the source files one at a time. Each file is mapped
// read-only where mmap is available, so repeated passes re-walk the page
// cache instead of re-reading; otherwise it falls back to a buffered
// sequential read.
type fileReader struct {
	paths []string
	idx   int
	cur   string

	data []byte
	off  int

	f  *os.File
	br *bufio.Reader
}

func (r *fileReader) Next() (string, error) {
	for {
		switch {
		case r.data != nil:
			if r.off < len(r.data) {
				return r.nextMapped(), nil
			}
			if err := r.closeCurrent(); err != nil {
				return "", fmt.Errorf("close %s: %w", r.cur, err)
			}
		case r.br != nil:
			line, err := r.br.ReadString('\n')
			if err == nil {
				return trimLine(line), nil
			}
			if err != io.EOF {
				return "", fmt.Errorf("read %s: %w", r.cur, err)
			}
			if cerr := r.closeCurrent(); cerr != nil {
				return "", fmt.Errorf("close %s: %w", r.cur, cerr)
			}
			if line != "" {
				return trimLine(line), nil
			}
		default:
			if r.idx >= len(r.paths) {
				return "", io.EOF
			}
			if err := r.openNext(); err != nil {
				return "", err
			}
		}
	}
}

func (r *fileReader) nextMapped() string {
	rest := r.data[r.off:]
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		r.off += i + 1
		return trimLine(string(rest[:i]))
	}
	r.off = len(r.data)
	return trimLine(string(rest))
}

func (r *fileReader) openNext() error {
	path := r.paths[r.idx]
	r.idx++
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open corpus: %w", err)
	}
	if useMmap {
		if stat, serr := f.Stat(); serr == nil && stat.Size() > 0 && stat.Size() <= int64(int(^uint(0)>>1)) {
			data, merr := unix.Mmap(int(f.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
			if merr == nil {
				_ = f.Close()
				r.data = data
				r.off = 0
				r.cur = path
				return nil
			}
		}
	}
	r.f = f
	r.br = bufio.NewReaderSize(f, 1<<16)
	r.cur = path
	return nil
}

func (r *fileReader) closeCurrent() error {
	if r.data != nil {
		data := r.data
		r.data = nil
		r.off = 0
		return unix.Munmap(data)
	}
	if r.f != nil {
		f := r.f
		r.f, r.br = nil, nil
		return f.Close()
	}
	return nil
}

// Close releases the current file or mapping. Safe to call more than once.
func (r *fileReader) Close() error {
	return r.closeCurrent()
}

func trimLine(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
