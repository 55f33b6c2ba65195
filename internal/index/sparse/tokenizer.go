package sparse

import (
	"regexp"
	"strings"
)

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// analyze lowercases text, extracts tokens, drops stop words and emits the
// n-grams of the remaining token sequence for n in [minN, maxN].
func analyze(text string, minN, maxN int) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, t := range raw {
		if _, stop := englishStopWords[t]; !stop {
			tokens = append(tokens, t)
		}
	}
	if maxN <= 1 {
		if minN <= 1 {
			return tokens
		}
		return nil
	}

	terms := make([]string, 0, len(tokens)*(maxN-minN+1))
	if minN <= 1 {
		terms = append(terms, tokens...)
		minN = 2
	}
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// Tokens returns the lowercased, stop word free unigrams of text.
func Tokens(text string) []string {
	return analyze(text, 1, 1)
}
