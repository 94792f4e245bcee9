package tokfile

import (
	"fmt"
	"strings"
)

// The GPT-2 printable-byte mapping: every byte gets a distinct printable
// rune, with the already-printable ASCII and Latin-1 ranges mapping to
// themselves and the rest shifted above U+0100. A space therefore encodes
// as U+0120 and a newline as U+010A, which keeps merge lines splittable on
// plain spaces.
var (
	byteEncoder [256]string
	byteDecoder map[rune]byte
)

func init() {
	var bs []int
	for i := int('!'); i <= int('~'); i++ {
		bs = append(bs, i)
	}
	for i := int('¡'); i <= int('¬'); i++ {
		bs = append(bs, i)
	}
	for i := int('®'); i <= int('ÿ'); i++ {
		bs = append(bs, i)
	}

	cs := make([]int, len(bs))
	copy(cs, bs)
	n := 0
	for b := 0; b < 256; b++ {
		found := false
		for _, v := range bs {
			if v == b {
				found = true
				break
			}
		}
		if !found {
			bs = append(bs, b)
			cs = append(cs, 256+n)
			n++
		}
	}

	byteDecoder = make(map[rune]byte, len(bs))
	for i := range bs {
		byteEncoder[byte(bs[i])] = string(rune(cs[i]))
		byteDecoder[rune(cs[i])] = byte(bs[i])
	}
}

// EncodeSymbol maps every byte of s to its printable stand-in.
func EncodeSymbol(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, by := range []byte(s) {
		b.WriteString(byteEncoder[by])
	}
	return b.String()
}

// DecodeSymbol reverses EncodeSymbol. A rune outside the mapping means the
// text was not produced by EncodeSymbol and the file is corrupt.
func DecodeSymbol(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		by, ok := byteDecoder[r]
		if !ok {
			return "", fmt.Errorf("%w: unmappable rune %q", ErrCorruptFile, r)
		}
		b.WriteByte(by)
	}
	return b.String(), nil
}
