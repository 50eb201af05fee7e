package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"rostergen/internal"
)

type SourceOptions struct {
	Path     string
	Encoding string
	Format   internal.InputFormat
	// Sheet selects the workbook sheet; empty means the first one.
	Sheet string
}

// OpenSource opens path and prepares the reader for its format. The caller
// must Close the returned Source.
func OpenSource(opts SourceOptions) (*Source, error) {
	file, err := os.Open(opts.Path)
	if err != nil {
		return nil, &internal.FileAccessError{Op: "open", Path: opts.Path, Err: err}
	}
	br := bufio.NewReaderSize(file, sniffSize)

	format := opts.Format
	if format == "" || format == internal.FormatAuto {
		head, _ := br.Peek(512)
		format = DetectFormat(opts.Path, head)
	}

	src := &Source{Path: opts.Path, Format: format, file: file}
	fail := func(err error) (*Source, error) {
		_ = file.Close()
		return nil, err
	}

	switch format {
	case internal.FormatCSV, internal.FormatHTML:
		dec, err := decodeInput(br, opts.Encoding)
		var accessErr *internal.FileAccessError
		if errors.As(err, &accessErr) {
			accessErr.Path = opts.Path
			return fail(accessErr)
		}
		if err != nil {
			return fail(&internal.EncodingError{Path: opts.Path, Encoding: opts.Encoding, Err: err})
		}
		src.dec = &dec
		src.Encoding = dec.encoding
		if format == internal.FormatCSV {
			src.rows = newCSVRows(dec.reader)
			return src, nil
		}
		rows, err := newHTMLRows(dec.reader)
		if err != nil {
			return fail(&internal.FormatError{Path: opts.Path, Format: format, Err: err})
		}
		src.rows = rows
		return src, nil
	case internal.FormatXLSX:
		rows, err := newXLSXRows(br, opts.Sheet)
		if err != nil {
			return fail(&internal.FormatError{Path: opts.Path, Format: format, Err: err})
		}
		src.rows = rows
		return src, nil
	default:
		return fail(fmt.Errorf("unsupported input format: %s", format))
	}
}
