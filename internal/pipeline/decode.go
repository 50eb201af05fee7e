package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"github.com/ssor/bom"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"rostergen/internal"
	"rostergen/internal/config"
)

const sniffSize = 4096

type decodeCheck int

const (
	// checkUTF8 means the bytes were passed through untouched and must be
	// valid UTF-8.
	checkUTF8 decodeCheck = iota
	// checkReplacement means a decoder ran and marked bad input with U+FFFD.
	checkReplacement
)

type decodedInput struct {
	reader   io.Reader
	encoding string
	check    decodeCheck
}

// decodeInput wraps r so that it yields UTF-8 text. The returned encoding is
// the resolved name, which differs from the requested one only for "auto".
func decodeInput(r io.Reader, encoding string) (decodedInput, error) {
	encoding = config.CanonicalEncoding(encoding)
	if encoding == "auto" {
		br := bufio.NewReaderSize(r, sniffSize)
		head, _ := br.Peek(sniffSize)
		encoding = detectEncoding(head)
		r = br
	}

	switch encoding {
	case "utf-8-sig", "":
		stripped, err := bom.NewReaderWithoutBom(r)
		if err != nil {
			return decodedInput{}, &internal.FileAccessError{Op: "read", Err: err}
		}
		return decodedInput{reader: stripped, encoding: "utf-8-sig", check: checkUTF8}, nil
	case "utf-8":
		return decodedInput{reader: r, encoding: "utf-8", check: checkUTF8}, nil
	}

	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return decodedInput{}, fmt.Errorf("unsupported encoding %q: %w", encoding, err)
	}
	return decodedInput{
		reader:   transform.NewReader(r, enc.NewDecoder()),
		encoding: encoding,
		check:    checkReplacement,
	}, nil
}

func detectEncoding(head []byte) string {
	if len(head) == 0 || utf8.Valid(head) {
		return "utf-8-sig"
	}
	result, err := chardet.NewTextDetector().DetectBest(head)
	if err != nil || result == nil {
		return "utf-8-sig"
	}
	charset := config.CanonicalEncoding(result.Charset)
	if charset == "utf-8" {
		return "utf-8-sig"
	}
	if _, err := htmlindex.Get(charset); err != nil {
		return "utf-8-sig"
	}
	return charset
}

func (d decodedInput) valid(value string) bool {
	switch d.check {
	case checkReplacement:
		return !strings.ContainsRune(value, utf8.RuneError)
	default:
		return utf8.ValidString(value)
	}
}

func (d decodedInput) firstInvalid(values []string) (string, bool) {
	for _, v := range values {
		if !d.valid(v) {
			return v, true
		}
	}
	return "", false
}
