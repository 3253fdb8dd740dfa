package normalize

import (
	"strings"
	"unicode"
)

// tokens splits s on whitespace and returns its distinct lowercase words in
// first-seen order.
func tokens(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// overlap counts the words of candidate that also appear in raw.
func overlap(candidate, raw string) int {
	rawWords := make(map[string]bool)
	for _, w := range tokens(raw) {
		rawWords[w] = true
	}
	n := 0
	for _, w := range tokens(candidate) {
		if rawWords[w] {
			n++
		}
	}
	return n
}

// Similarity is the Sørensen–Dice coefficient of the character bigrams of a
// and b, ignoring case and whitespace. It ranges from 0 (nothing in common)
// to 1 (identical).
func Similarity(a, b string) float64 {
	first := stripSpace(strings.ToLower(a))
	second := stripSpace(strings.ToLower(b))

	if string(first) == string(second) {
		return 1
	}
	if len(first) < 2 || len(second) < 2 {
		return 0
	}

	bigrams := make(map[[2]rune]int, len(first)-1)
	for i := 0; i < len(first)-1; i++ {
		bigrams[[2]rune{first[i], first[i+1]}]++
	}

	intersection := 0
	for i := 0; i < len(second)-1; i++ {
		bg := [2]rune{second[i], second[i+1]}
		if bigrams[bg] > 0 {
			bigrams[bg]--
			intersection++
		}
	}

	return 2 * float64(intersection) / float64(len(first)+len(second)-2)
}

func stripSpace(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			out = append(out, r)
		}
	}
	return out
}
