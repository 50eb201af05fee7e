package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var reSpaces = regexp.MustCompile(`\s+`)

// NormalizeSpaces collapses ASCII whitespace runs and trims the ends.
// Ideographic spaces inside names are kept.
func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// CompactName folds width and case and drops every space, so
// "井上　千鶴子" and "井上千鶴子" compare equal.
func CompactName(input string) string {
	s := strings.ToLower(norm.NFKC.String(input))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ContainmentSimilarity is shorter/longer length when one string contains the
// other, and 0 otherwise.
func ContainmentSimilarity(a, b string) float64 {
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return 0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	if la < lb {
		return float64(la) / float64(lb)
	}
	return float64(lb) / float64(la)
}

// JaroWinkler compares case-insensitively with a common prefix of at most
// four runes and a scaling factor of 0.1.
func JaroWinkler(a, b string) float64 {
	s1 := []rune(strings.ToLower(a))
	s2 := []rune(strings.ToLower(b))

	if string(s1) == string(s2) {
		return 1
	}
	if len(s1) == 0 || len(s2) == 0 {
		return 0
	}

	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	matchDistance := maxLen/2 - 1
	if matchDistance < 0 {
		return 0
	}

	s1Matches := make([]bool, len(s1))
	s2Matches := make([]bool, len(s2))
	matches := 0
	for i := range s1 {
		start := i - matchDistance
		if start < 0 {
			start = 0
		}
		end := i + matchDistance + 1
		if end > len(s2) {
			end = len(s2)
		}
		for j := start; j < end; j++ {
			if s2Matches[j] || s1[i] != s2[j] {
				continue
			}
			s1Matches[i] = true
			s2Matches[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := range s1 {
		if !s1Matches[i] {
			continue
		}
		for !s2Matches[k] {
			k++
		}
		if s1[i] != s2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	jaro := (m/float64(len(s1)) + m/float64(len(s2)) + (m-float64(transpositions)/2)/m) / 3

	prefix := 0
	limit := 4
	if len(s1) < limit {
		limit = len(s1)
	}
	if len(s2) < limit {
		limit = len(s2)
	}
	for i := 0; i < limit; i++ {
		if s1[i] != s2[i] {
			break
		}
		prefix++
	}

	return jaro + float64(prefix)*0.1*(1-jaro)
}
