package pipeline

import (
	"bytes"
	"path/filepath"
	"strings"

	"rostergen/internal"
)

var zipMagic = []byte("PK\x03\x04")

// DetectFormat picks the reader for a roster file, first by extension and
// then by sniffing the leading bytes.
func DetectFormat(path string, head []byte) internal.InputFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return internal.FormatCSV
	case ".xlsx", ".xlsm":
		return internal.FormatXLSX
	case ".html", ".htm":
		return internal.FormatHTML
	}

	if bytes.HasPrefix(head, zipMagic) {
		return internal.FormatXLSX
	}
	lower := bytes.ToLower(head)
	if bytes.Contains(lower, []byte("<table")) || bytes.Contains(lower, []byte("<html")) {
		return internal.FormatHTML
	}
	return internal.FormatCSV
}
