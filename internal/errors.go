package internal

import (
	"fmt"
	"strings"
	"unicode"
)

// FileAccessError reports an input that cannot be read or an output that
// cannot be written.
type FileAccessError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// EncodingError reports bytes that do not decode under the declared encoding.
type EncodingError struct {
	Path     string
	Encoding string
	Line     int
	Err      error
}

func (e *EncodingError) Error() string {
	msg := fmt.Sprintf("decode %s as %s", e.Path, e.Encoding)
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EncodingError) Unwrap() error { return e.Err }

// SchemaError reports a record missing a required column.
type SchemaError struct {
	Line    int
	Missing []string
	Headers []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("line %d: missing column(s) %s; headers found are %s",
		e.Line, quoteList(e.Missing), quoteList(e.Headers))
}

// Diagnostic is the console message printed when the schema does not match.
func (e *SchemaError) Diagnostic() string {
	return "Error: Headers found are " + pyList(e.Headers)
}

// FormatError reports an input that cannot be parsed in its format.
type FormatError struct {
	Path   string
	Format InputFormat
	Line   int
	Err    error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("parse %s as %s", e.Path, e.Format)
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func quoteList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, fmt.Sprintf("%q", v))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// pyList renders values the way Python prints a list of strings.
func pyList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, pyQuote(v))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func pyQuote(s string) string {
	q := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteRune(q)
	for _, r := range s {
		switch {
		case r == q || r == '\\':
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case unicode.IsPrint(r) || r == ' ':
			b.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteRune(q)
	return b.String()
}
