package directory

import (
	"os"
	"strings"

	"rostergen/internal"
	"rostergen/internal/pipeline"
	"rostergen/internal/util"
)

type Index struct {
	Teachers     []internal.Teacher
	ByName       map[string][]int
	ByCompact    map[string][]int
	CompactByPos []string
}

func BuildIndex(teachers []internal.Teacher) *Index {
	idx := &Index{
		Teachers:     teachers,
		ByName:       map[string][]int{},
		ByCompact:    map[string][]int{},
		CompactByPos: make([]string, len(teachers)),
	}

	for i, t := range teachers {
		idx.ByName[t.Name] = append(idx.ByName[t.Name], i)
		compact := util.CompactName(t.Name)
		idx.CompactByPos[i] = compact
		if compact != "" {
			idx.ByCompact[compact] = append(idx.ByCompact[compact], i)
		}
	}

	return idx
}

// Load reads a generated data file. constName may be empty to accept any
// declared name.
func Load(path, constName string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &internal.FileAccessError{Op: "open", Path: path, Err: err}
	}
	teachers, err := pipeline.ParseJS(data, constName)
	if err != nil {
		if fe, ok := err.(*internal.FormatError); ok {
			fe.Path = path
		}
		return nil, err
	}
	return BuildIndex(teachers), nil
}

func (idx *Index) Len() int {
	return len(idx.Teachers)
}

// Search returns up to limit teachers whose name or department contains
// query, ignoring case, in roster order.
func (idx *Index) Search(query string, limit int) []internal.Teacher {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}

	out := []internal.Teacher{}
	for _, t := range idx.Teachers {
		if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.Dept), q) {
			out = append(out, t)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}
