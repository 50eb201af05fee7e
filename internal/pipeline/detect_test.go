package pipeline

import (
	"testing"

	"rostergen/internal"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		head string
		want internal.InputFormat
	}{
		{"roster.csv", "PK\x03\x04", internal.FormatCSV},
		{"ROSTER.XLSX", "", internal.FormatXLSX},
		{"roster.htm", "", internal.FormatHTML},
		{"roster", "PK\x03\x04rest", internal.FormatXLSX},
		{"roster", "<!doctype html><HTML>", internal.FormatHTML},
		{"roster", "  <table><tr>", internal.FormatHTML},
		{"roster", "所属,氏名", internal.FormatCSV},
		{"", "", internal.FormatCSV},
	}
	for _, tc := range tests {
		if got := DetectFormat(tc.path, []byte(tc.head)); got != tc.want {
			t.Errorf("DetectFormat(%q, %q) = %s, want %s", tc.path, tc.head, got, tc.want)
		}
	}
}

func TestDetectEncoding(t *testing.T) {
	if got := detectEncoding(nil); got != "utf-8-sig" {
		t.Fatalf("empty head = %s", got)
	}
	if got := detectEncoding([]byte("\xef\xbb\xbf所属,氏名")); got != "utf-8-sig" {
		t.Fatalf("utf-8 head = %s", got)
	}
}
