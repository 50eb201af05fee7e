package pipeline

import (
	"strings"

	"rostergen/internal"
	"rostergen/internal/config"
)

// Rules decide which roster rows survive and how their department reads.
// Exclusion is always checked before any replacement.
type Rules struct {
	Exclude      []string
	Replacements []config.Replacement
}

var DefaultRules = Rules{
	Exclude:      []string{config.ExclusionMarker},
	Replacements: config.DefaultReplacements,
}

func RulesFromConfig(cfg config.NormalizeConfig) Rules {
	return Rules{Exclude: cfg.Exclude, Replacements: cfg.Replacements}
}

func (r Rules) Excludes(dept string) bool {
	for _, marker := range r.Exclude {
		if marker != "" && strings.Contains(dept, marker) {
			return true
		}
	}
	return false
}

// NormalizeDept applies the replacements in order and repeats the pass while
// it keeps shrinking the value, so a removal cannot leave a new occurrence
// behind ("コーコースス" becomes "").
func (r Rules) NormalizeDept(dept string) string {
	for {
		next := dept
		for _, rep := range r.Replacements {
			if rep.From == "" {
				continue
			}
			next = strings.ReplaceAll(next, rep.From, rep.To)
		}
		if next == dept || len(next) >= len(dept) {
			return next
		}
		dept = next
	}
}

// Apply returns the output record for row, or false when the row is dropped.
func (r Rules) Apply(row internal.RosterRow) (internal.Teacher, bool) {
	if r.Excludes(row.Dept) {
		return internal.Teacher{}, false
	}
	return internal.Teacher{Name: row.Name, Dept: r.NormalizeDept(row.Dept)}, true
}
