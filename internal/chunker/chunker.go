// Package chunker packs corpus lines into byte-budgeted chunks without ever
// splitting a UTF-8 scalar value across a chunk boundary.
package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinChunkBytes is the smallest usable chunk budget: one maximal UTF-8
// scalar plus the reserved line-separator byte. Budgets below this cannot
// guarantee forward progress.
const MinChunkBytes = utf8.UTFMax + 1

// ErrBudgetTooSmall is returned by NewPacker for budgets below MinChunkBytes.
var ErrBudgetTooSmall = errors.New("chunk budget below minimum")

// Packer accumulates lines into chunks of at most a fixed byte size. Lines
// within a chunk are joined with a single newline, so a chunk reproduces the
// corpus text it covers. Lines longer than the remaining space are split at
// the largest UTF-8 boundary that fits; the continuation starts the next
// chunk with no separator.
type Packer struct {
	max int
	buf strings.Builder
}

// NewPacker returns a Packer emitting chunks of at most max bytes.
func NewPacker(max int) (*Packer, error) {
	if max < MinChunkBytes {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrBudgetTooSmall, max, MinChunkBytes)
	}
	return &Packer{max: max}, nil
}

// Push adds one line (without its trailing newline) and returns any chunks
// completed by it, in order. A line may complete several chunks when it
// exceeds the budget on its own.
func (p *Packer) Push(line string) []string {
	var out []string
	for {
		space := p.max - p.buf.Len()
		if p.buf.Len() > 0 {
			space-- // reserve the joining newline
		}
		if space <= 0 {
			out = append(out, p.flush())
			continue
		}
		if len(line) <= space {
			if p.buf.Len() > 0 {
				p.buf.WriteByte('\n')
			}
			p.buf.WriteString(line)
			return out
		}
		cut := splitPoint(line, space)
		if cut == 0 {
			if p.buf.Len() > 0 {
				out = append(out, p.flush())
				continue
			}
			cut = space // malformed UTF-8 run longer than the budget
		}
		if p.buf.Len() > 0 {
			p.buf.WriteByte('\n')
		}
		p.buf.WriteString(line[:cut])
		out = append(out, p.flush())
		line = line[cut:]
	}
}

// Flush returns the final partial chunk, if any. The Packer is reusable
// afterwards.
func (p *Packer) Flush() (string, bool) {
	if p.buf.Len() == 0 {
		return "", false
	}
	return p.flush(), true
}

func (p *Packer) flush() string {
	s := p.buf.String()
	p.buf.Reset()
	return s
}

// splitPoint returns the length of the longest prefix of s that fits in
// limit bytes and ends on a rune boundary.
func splitPoint(s string, limit int) int {
	if len(s) <= limit {
		return len(s)
	}
	i := limit
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
