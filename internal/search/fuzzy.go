// Package search implements typo-tolerant matching and relevance scoring for
// single-line text fields such as exercise names, plus the cross-category
// "did you mean" fallback used when a subregion search comes back empty.
//
// Everything here is a pure function of its inputs.
package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Match tiers, best first.
const (
	tierNone      = 0
	tierEdit      = 1
	tierPrefix    = 2
	tierSubstring = 3
)

const (
	tierWeight     = 100.0
	coverageWeight = 50.0
	earlyBonus     = 25.0
	earlyDecay     = 0.5
	maxLenPenalty  = 0.1
)

// Normalize lowercases s, folds diacritics and collapses whitespace.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Tolerance is the edit distance allowed for a query token of n runes.
func Tolerance(n int) int {
	switch {
	case n <= 3:
		return 0
	case n <= 6:
		return 1
	default:
		return 2
	}
}

// Matches reports whether haystack contains the whole query, or every query
// token matches some haystack token by prefix or within edit tolerance.
// An empty query matches everything.
func Matches(query, haystack string) bool {
	q := Normalize(query)
	if q == "" {
		return true
	}
	h := Normalize(haystack)
	if strings.Contains(h, q) {
		return true
	}
	r := matchTokens(strings.Fields(q), h)
	return r.satisfied == r.total
}

// Score ranks haystack against query. Substring beats prefix beats edit
// distance; earlier matches and more satisfied tokens score higher; shorter
// haystacks win otherwise equal scores. A pair with no satisfied token
// scores 0.
func Score(query, haystack string) float64 {
	q := Normalize(query)
	h := Normalize(haystack)
	if q == "" || h == "" {
		return 0
	}

	var tier, offset int
	coverage := 1.0
	if idx := strings.Index(h, q); idx >= 0 {
		tier = tierSubstring
		offset = utf8.RuneCountInString(h[:idx])
	} else {
		r := matchTokens(strings.Fields(q), h)
		if r.satisfied == 0 {
			return 0
		}
		tier = r.worstTier
		offset = r.offset
		coverage = float64(r.satisfied) / float64(r.total)
	}

	score := float64(tier)*tierWeight + coverage*coverageWeight
	if bonus := earlyBonus - float64(offset)*earlyDecay; bonus > 0 {
		score += bonus
	}
	penalty := float64(utf8.RuneCountInString(h)) / 10000
	if penalty > maxLenPenalty {
		penalty = maxLenPenalty
	}
	return score - penalty
}

type tokenResult struct {
	total     int
	satisfied int
	worstTier int
	offset    int
}

type hayToken struct {
	text   string
	offset int // rune offset in the normalized haystack
}

func tokenize(h string) []hayToken {
	var out []hayToken
	pos := 0
	for _, f := range strings.Fields(h) {
		out = append(out, hayToken{text: f, offset: pos})
		pos += utf8.RuneCountInString(f) + 1
	}
	return out
}

// matchTokens finds, for each query token, its best haystack token. The
// resulting tier is the weakest among satisfied tokens, so one typo keeps the
// whole match in the edit tier.
func matchTokens(qTokens []string, h string) tokenResult {
	res := tokenResult{total: len(qTokens), worstTier: tierSubstring, offset: -1}
	hTokens := tokenize(h)

	for _, qt := range qTokens {
		best, at := tierNone, -1
		for _, ht := range hTokens {
			t := tokenTier(qt, ht.text)
			if t > best {
				best, at = t, ht.offset
			}
		}
		if best == tierNone {
			continue
		}
		res.satisfied++
		if best < res.worstTier {
			res.worstTier = best
		}
		if res.offset < 0 || at < res.offset {
			res.offset = at
		}
	}
	if res.satisfied == 0 {
		res.worstTier = tierNone
		res.offset = 0
	}
	return res
}

func tokenTier(q, h string) int {
	if strings.HasPrefix(h, q) {
		return tierPrefix
	}
	qr, hr := []rune(q), []rune(h)
	tol := Tolerance(len(qr))
	if tol == 0 {
		return tierNone
	}
	if withinDistance(qr, hr, tol) {
		return tierEdit
	}
	if len(hr) > len(qr) && withinDistance(qr, hr[:len(qr)], tol) {
		return tierEdit
	}
	return tierNone
}

// withinDistance reports whether the Levenshtein distance of a and b is at
// most limit, stopping as soon as a row exceeds it.
func withinDistance(a, b []rune, limit int) bool {
	if abs(len(a)-len(b)) > limit {
		return false
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > limit {
			return false
		}
		prev, curr = curr, prev
	}
	return prev[len(b)] <= limit
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
