package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"rostergen/internal"
	"rostergen/internal/config"
)

type JSOptions struct {
	ConstName string
	Indent    int
}

var DefaultJSOptions = JSOptions{ConstName: config.DefaultConstName, Indent: config.DefaultIndent}

// RenderJS renders `const NAME = [...];` with non-ASCII text kept literal and
// no trailing newline.
func RenderJS(teachers []internal.Teacher, opts JSOptions) ([]byte, error) {
	if teachers == nil {
		teachers = []internal.Teacher{}
	}
	if opts.ConstName == "" {
		opts.ConstName = config.DefaultConstName
	}

	compact := bytes.NewBuffer(nil)
	enc := json.NewEncoder(compact)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(teachers); err != nil {
		return nil, err
	}

	out := bytes.NewBuffer(nil)
	out.WriteString("const " + opts.ConstName + " = ")
	if err := json.Indent(out, bytes.TrimRight(compact.Bytes(), "\n"), "", strings.Repeat(" ", opts.Indent)); err != nil {
		return nil, err
	}
	out.WriteString(";")
	return out.Bytes(), nil
}

// WriteJS replaces the file at path with the rendered document.
func WriteJS(path string, teachers []internal.Teacher, opts JSOptions) error {
	data, err := RenderJS(teachers, opts)
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &internal.FileAccessError{Op: "write", Path: path, Err: err}
	}
	return nil
}

var declPattern = regexp.MustCompile(`^\s*(?:const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*`)

// ParseJS reads back a document written by RenderJS. constName may be empty
// to accept any declared name.
func ParseJS(data []byte, constName string) ([]internal.Teacher, error) {
	m := declPattern.FindSubmatchIndex(data)
	if m == nil {
		return nil, &internal.FormatError{Format: internal.FormatJS, Err: errors.New("missing array declaration")}
	}
	if name := string(data[m[2]:m[3]]); constName != "" && name != constName {
		return nil, &internal.FormatError{Format: internal.FormatJS, Err: fmt.Errorf("declares %s, want %s", name, constName)}
	}

	body := bytes.TrimSpace(data[m[1]:])
	body = bytes.TrimSpace(bytes.TrimSuffix(body, []byte(";")))

	teachers := []internal.Teacher{}
	if err := json.Unmarshal(body, &teachers); err != nil {
		return nil, &internal.FormatError{Format: internal.FormatJS, Err: err}
	}
	return teachers, nil
}
