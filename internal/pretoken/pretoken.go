// Package pretoken splits raw text into pretokens, the atomic symbols the
// vocabulary trainer merges. The split is deterministic and exhaustive:
// every character of the input lands in exactly one pretoken.
package pretoken

import "regexp"

// pattern classifies text into English contractions, letter runs, digit
// runs, punctuation runs, and whitespace runs. Alternation is first-match
// wins, so the contraction branches take precedence over the generic
// punctuation branch, and each run branch is greedy within its class.
// Go regexp does not support lookahead, so whitespace is a plain \s+ match
// with no letter-prefix variants; whitespace always forms its own pretoken.
var pattern = regexp.MustCompile(`'s|'t|'re|'ve|'m|'ll|'d|\p{L}+|\p{N}+|[^\s\p{L}\p{N}]+|\s+`)

// Pattern returns the classification pattern source, for embedding in
// artifacts so consumers can reproduce the split.
func Pattern() string {
	return pattern.String()
}

// Split breaks text into pretokens in input order. Adjacent pretokens are
// contiguous in the input, so concatenating the result reproduces text
// exactly. An empty input yields no pretokens.
func Split(text string) []string {
	return pattern.FindAllString(text, -1)
}
