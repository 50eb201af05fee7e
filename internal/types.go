package internal

import "time"

type InputFormat string

const (
	FormatAuto InputFormat = "auto"
	FormatCSV  InputFormat = "csv"
	FormatXLSX InputFormat = "xlsx"
	FormatHTML InputFormat = "html"
	FormatJS   InputFormat = "js"
)

// Record is one data row of a roster, keyed by header. Headers keeps the
// file order so diagnostics can list them as they appear.
type Record struct {
	LineNo  int
	Headers []string
	Cells   map[string]string
}

func (r Record) Get(column string) (string, bool) {
	v, ok := r.Cells[column]
	return v, ok
}

type Columns struct {
	Dept string
	Name string
}

// RosterRow is a Record that has both required columns.
type RosterRow struct {
	LineNo int
	Dept   string
	Name   string
}

// NewRosterRow validates that the record carries both required columns.
func NewRosterRow(rec Record, cols Columns) (RosterRow, error) {
	dept, okDept := rec.Get(cols.Dept)
	name, okName := rec.Get(cols.Name)
	if okDept && okName {
		return RosterRow{LineNo: rec.LineNo, Dept: dept, Name: name}, nil
	}

	missing := make([]string, 0, 2)
	if !okDept {
		missing = append(missing, cols.Dept)
	}
	if !okName {
		missing = append(missing, cols.Name)
	}
	headers := make([]string, len(rec.Headers))
	copy(headers, rec.Headers)
	return RosterRow{}, &SchemaError{Line: rec.LineNo, Missing: missing, Headers: headers}
}

type Teacher struct {
	Name string `json:"name"`
	Dept string `json:"dept"`
}

type RunStatus string

const (
	RunOK     RunStatus = "ok"
	RunFailed RunStatus = "failed"
)

type RunCounts struct {
	Read    int `json:"read"`
	Dropped int `json:"dropped"`
	Written int `json:"written"`
}

type RunRecord struct {
	ID         int
	TraceID    string
	InputPath  string
	OutputPath string
	Encoding   string
	Format     string
	Counts     RunCounts
	Status     RunStatus
	Error      string
	DurationMs int64
	CreatedAt  time.Time
}
