package directory

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"rostergen/internal"
	"rostergen/internal/util"
)

type MatchReason string

const (
	ReasonExact      MatchReason = "exact"
	ReasonNormalized MatchReason = "normalized"
	ReasonContains   MatchReason = "contains"
	ReasonFuzzy      MatchReason = "fuzzy"
	ReasonNone       MatchReason = "none"
)

type Match struct {
	Query      string
	Teacher    *internal.Teacher
	Similarity float64
	Reason     MatchReason
}

func (m Match) Found() bool {
	return m.Teacher != nil
}

type Thresholds struct {
	// Accept is the minimum similarity a match needs.
	Accept float64
	// Fuzzy is the minimum Jaro-Winkler score considered at all.
	Fuzzy float64
}

var DefaultThresholds = Thresholds{Accept: 0.75, Fuzzy: 0.8}

// Lookup finds the teacher best matching query. Exact names win outright;
// otherwise containment is tried for every teacher and Jaro-Winkler only
// while nothing has reached the accept threshold.
func (idx *Index) Lookup(query string, th Thresholds) Match {
	q := strings.TrimSpace(query)
	miss := Match{Query: query, Reason: ReasonNone}
	if q == "" {
		return miss
	}

	if pos := idx.ByName[q]; len(pos) > 0 {
		return idx.match(query, pos[0], 1, ReasonExact)
	}
	if pos := idx.ByCompact[util.CompactName(q)]; len(pos) > 0 {
		return idx.match(query, pos[0], 1, ReasonNormalized)
	}

	best, bestPos, reason := 0.0, -1, ReasonNone
	for i, t := range idx.Teachers {
		if score := util.ContainmentSimilarity(q, t.Name); score > best {
			best, bestPos, reason = score, i, ReasonContains
		}
		if best < th.Accept {
			score := util.JaroWinkler(q, t.Name)
			if score >= th.Fuzzy && score > best {
				best, bestPos, reason = score, i, ReasonFuzzy
			}
		}
	}

	if bestPos < 0 || best < th.Accept {
		miss.Similarity = best
		return miss
	}
	return idx.match(query, bestPos, best, reason)
}

// LookupAll resolves every name in order.
func (idx *Index) LookupAll(names []string, th Thresholds) []Match {
	out := make([]Match, 0, len(names))
	for _, n := range names {
		out = append(out, idx.Lookup(n, th))
	}
	return out
}

func (idx *Index) match(query string, pos int, score float64, reason MatchReason) Match {
	t := idx.Teachers[pos]
	return Match{Query: query, Teacher: &t, Similarity: score, Reason: reason}
}

const maxNameRunes = 30

// ExtractNames splits pasted text into candidate names on whitespace
// (including ideographic space), commas and "、".
func ExtractNames(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '、' || r == '，'
	})
	out := []string{}
	for _, f := range fields {
		if n := utf8.RuneCountInString(f); n > 0 && n < maxNameRunes {
			out = append(out, f)
		}
	}
	return out
}
