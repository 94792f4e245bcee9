package pretoken

import (
	"strings"
	"testing"
)

func TestSplitContractions(t *testing.T) {
	t.Parallel()

	got := Split("don't stop2go!")
	want := []string{"don", "'t", " ", "stop", "2", "go", "!"}
	if len(got) != len(want) {
		t.Fatalf("pretoken count mismatch: got %q want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pretoken %d mismatch: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestSplitClasses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"letters", "hello", []string{"hello"}},
		{"digits", "1234", []string{"1234"}},
		{"letters then digits", "abc123", []string{"abc", "123"}},
		{"punctuation run", "!?.", []string{"!?."}},
		{"whitespace run", "a  b", []string{"a", "  ", "b"}},
		{"mixed whitespace", "a\n \tb", []string{"a", "\n \t", "b"}},
		{"unicode letters", "héllo wörld", []string{"héllo", " ", "wörld"}},
		{"apostrophe alone", "'", []string{"'"}},
		{"contraction ll", "we'll", []string{"we", "'ll"}},
		{"contraction ve", "they've", []string{"they", "'ve"}},
		{"leading space", " hi", []string{" ", "hi"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Split(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("pretoken count mismatch: got %q want %q", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("pretoken %d mismatch: got %q want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestSplitCoversInput(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"the quick brown fox",
		"don't stop2go!",
		"  leading and trailing  ",
		"líne\nbréak\ttab",
		"x1y2z3",
		"...!!!???",
		"päärynä 42 omenaa; 3,14",
	}
	for _, in := range inputs {
		if got := strings.Join(Split(in), ""); got != in {
			t.Fatalf("concatenated pretokens differ from input: got %q want %q", got, in)
		}
	}
}

func TestPatternStable(t *testing.T) {
	t.Parallel()

	if Pattern() == "" {
		t.Fatalf("empty pattern")
	}
	if !strings.Contains(Pattern(), `\p{L}+`) {
		t.Fatalf("pattern missing letter-run branch: %s", Pattern())
	}
}
