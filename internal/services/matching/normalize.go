package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Quote marks are dropped rather than split on so that abbreviations such
// as בע"מ and ד"ר collapse into one token.
var quoteMarks = strings.NewReplacer(
	`"`, "", "'", "", "`", "",
	"״", "", "׳", "", // gershayim, geresh
	"‘", "", "’", "", "“", "", "”", "",
)

// honorifics are titles and corporate suffixes that carry no identity.
var honorifics = map[string]struct{}{
	"מר": {}, "גב": {}, "גברת": {}, "דר": {}, "עוד": {}, "רוח": {},
	"בעמ": {}, "חברת": {},
	"mr": {}, "mrs": {}, "ms": {}, "dr": {},
	"ltd": {}, "inc": {}, "llc": {}, "co": {}, "corp": {},
}

// Normalize lowercases s, strips punctuation and honorifics, and returns its tokens.
func Normalize(s string) []string {
	s = strings.ToLower(quoteMarks.Replace(s))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 {
			continue
		}
		if _, ok := honorifics[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Similarity is the token-overlap ratio of a and b in [0, 1], measured
// against the smaller token set.
func Similarity(a, b string) float64 {
	ta, tb := Normalize(a), Normalize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	ja := " " + strings.Join(ta, " ") + " "
	jb := " " + strings.Join(tb, " ") + " "
	if strings.Contains(ja, jb) || strings.Contains(jb, ja) {
		return 1
	}

	small, large := dedupe(ta), dedupe(tb)
	if len(small) > len(large) {
		small, large = large, small
	}

	matches := 0
	for _, s := range small {
		for _, l := range large {
			if tokensMatch(s, l) {
				matches++
				break
			}
		}
	}
	return float64(matches) / float64(len(small))
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// tokensMatch accepts exact matches, and near matches for tokens of four or
// more runes (typos, Hebrew prefix letters).
func tokensMatch(a, b string) bool {
	if a == b {
		return true
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 4 || len(rb) < 4 {
		return false
	}
	dist := levenshtein(ra, rb)
	sim := 1 - float64(dist)/float64(max(len(ra), len(rb)))
	return sim >= 0.8
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,
				curr[j-1]+1,
				prev[j-1]+cost,
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
