package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"rostergen/internal"
	"rostergen/internal/util"
)

// RecordIterator yields records until io.EOF.
type RecordIterator interface {
	Next() (internal.Record, error)
	Close() error
}

type rowReader interface {
	readRow() ([]string, int, error)
	close() error
}

// rowError marks a row reader failure as a format problem at line.
type rowError struct {
	line int
	err  error
}

func (e *rowError) Error() string { return e.err.Error() }

// Source reads a roster file. The first row is the header; every following
// row becomes a Record keyed by it.
type Source struct {
	Path     string
	Format   internal.InputFormat
	Encoding string

	file       *os.File
	rows       rowReader
	dec        *decodedInput
	headers    []string
	headerRead bool
	closed     bool
}

func (s *Source) Headers() []string {
	return s.headers
}

func (s *Source) Next() (internal.Record, error) {
	if s.closed {
		return internal.Record{}, io.EOF
	}
	if !s.headerRead {
		cells, line, err := s.rows.readRow()
		if err != nil {
			return internal.Record{}, s.wrapErr(err, line)
		}
		if err := s.checkCells(cells, line); err != nil {
			return internal.Record{}, err
		}
		s.headers = append([]string(nil), cells...)
		s.headerRead = true
	}

	cells, line, err := s.rows.readRow()
	if err != nil {
		return internal.Record{}, s.wrapErr(err, line)
	}
	if err := s.checkCells(cells, line); err != nil {
		return internal.Record{}, err
	}
	return buildRecord(line, s.headers, cells), nil
}

func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	if s.rows != nil {
		errs = append(errs, s.rows.close())
	}
	if s.file != nil {
		errs = append(errs, s.file.Close())
	}
	return errors.Join(errs...)
}

func (s *Source) checkCells(cells []string, line int) error {
	if s.dec == nil {
		return nil
	}
	if bad, found := s.dec.firstInvalid(cells); found {
		return &internal.EncodingError{
			Path:     s.Path,
			Encoding: s.Encoding,
			Line:     line,
			Err:      fmt.Errorf("invalid byte sequence in %q", bad),
		}
	}
	return nil
}

func (s *Source) wrapErr(err error, line int) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &internal.FormatError{Path: s.Path, Format: s.Format, Line: parseErr.StartLine, Err: parseErr.Err}
	}
	var rowErr *rowError
	if errors.As(err, &rowErr) {
		return &internal.FormatError{Path: s.Path, Format: s.Format, Line: rowErr.line, Err: rowErr.err}
	}
	return &internal.FileAccessError{Op: "read", Path: s.Path, Err: err}
}

func buildRecord(line int, headers, row []string) internal.Record {
	cells := make(map[string]string, len(headers))
	for i, h := range headers {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		cells[h] = value
	}
	return internal.Record{LineNo: line, Headers: headers, Cells: cells}
}

type csvRows struct {
	r *csv.Reader
}

func newCSVRows(r io.Reader) *csvRows {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &csvRows{r: cr}
}

func (c *csvRows) readRow() ([]string, int, error) {
	row, err := c.r.Read()
	if err != nil {
		return nil, 0, err
	}
	line, _ := c.r.FieldPos(0)
	return row, line, nil
}

func (c *csvRows) close() error { return nil }

type xlsxRows struct {
	book *excelize.File
	rows *excelize.Rows
	line int
}

func newXLSXRows(r io.Reader, sheet string) (*xlsxRows, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			_ = book.Close()
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := book.Rows(sheet)
	if err != nil {
		_ = book.Close()
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return &xlsxRows{book: book, rows: rows}, nil
}

func (x *xlsxRows) readRow() ([]string, int, error) {
	for x.rows.Next() {
		x.line++
		cols, err := x.rows.Columns()
		if err != nil {
			return nil, x.line, &rowError{line: x.line, err: err}
		}
		if len(cols) == 0 {
			continue
		}
		return cols, x.line, nil
	}
	if err := x.rows.Error(); err != nil {
		return nil, x.line, &rowError{line: x.line, err: err}
	}
	return nil, x.line, io.EOF
}

func (x *xlsxRows) close() error {
	return errors.Join(x.rows.Close(), x.book.Close())
}

type htmlRows struct {
	rows  [][]string
	lines []int
	next  int
}

// newHTMLRows takes the first table that has at least one row.
func newHTMLRows(r io.Reader) (*htmlRows, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var out *htmlRows
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		trs := table.Find("tr")
		if trs.Length() == 0 {
			return true
		}
		out = &htmlRows{}
		trs.Each(func(i int, tr *goquery.Selection) {
			cells := []string{}
			tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.NormalizeSpaces(cell.Text()))
			})
			if len(cells) == 0 {
				return
			}
			out.rows = append(out.rows, cells)
			out.lines = append(out.lines, i+1)
		})
		return false
	})
	if out == nil {
		return nil, errors.New("no table rows found")
	}
	return out, nil
}

func (h *htmlRows) readRow() ([]string, int, error) {
	if h.next >= len(h.rows) {
		return nil, 0, io.EOF
	}
	i := h.next
	h.next++
	return h.rows[i], h.lines[i], nil
}

func (h *htmlRows) close() error { return nil }
