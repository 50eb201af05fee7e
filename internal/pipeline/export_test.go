package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"rostergen/internal"
)

func TestRenderJS(t *testing.T) {
	got, err := RenderJS([]internal.Teacher{
		{Name: "B", Dept: "A"},
		{Name: "C", Dept: "一般"},
	}, DefaultJSOptions)
	require.NoError(t, err)

	want := `const ALL_TEACHERS = [
    {
        "name": "B",
        "dept": "A"
    },
    {
        "name": "C",
        "dept": "一般"
    }
];`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Fatalf("RenderJS mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderJSEmpty(t *testing.T) {
	for _, teachers := range [][]internal.Teacher{nil, {}} {
		got, err := RenderJS(teachers, DefaultJSOptions)
		require.NoError(t, err)
		assert.Equal(t, "const ALL_TEACHERS = [];", string(got))
	}
}

func TestRenderJSKeepsTextLiteral(t *testing.T) {
	got, err := RenderJS([]internal.Teacher{{Name: `<井上 & "千鶴子">`, Dept: "電気"}}, JSOptions{ConstName: "STAFF", Indent: 2})
	require.NoError(t, err)
	assert.Equal(t, "const STAFF = [\n  {\n    \"name\": \"<井上 & \\\"千鶴子\\\">\",\n    \"dept\": \"電気\"\n  }\n];", string(got))
}

func TestRenderJSLineSeparators(t *testing.T) {
	got, err := RenderJS([]internal.Teacher{{Name: "a\u2028b\u2029c", Dept: "\b\f"}}, JSOptions{ConstName: "X", Indent: 0})
	require.NoError(t, err)
	assert.Equal(t, "const X = [\n{\n\"name\": \"a\\u2028b\\u2029c\",\n\"dept\": \"\\b\\f\"\n}\n];", string(got))

	back, err := ParseJS(got, "X")
	require.NoError(t, err)
	assert.Equal(t, "a\u2028b\u2029c", back[0].Name)
	assert.Equal(t, "\b\f", back[0].Dept)
}

func TestWriteJS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "teachers_data.js")
	teachers := []internal.Teacher{{Name: "山田　太郎", Dept: "機械"}}

	require.NoError(t, WriteJS(path, teachers, DefaultJSOptions))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	back, err := ParseJS(data, "ALL_TEACHERS")
	require.NoError(t, err)
	assert.Equal(t, teachers, back)

	err = WriteJS(filepath.Join(dir, "missing", "out.js"), teachers, DefaultJSOptions)
	var accessErr *internal.FileAccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, "write", accessErr.Op)
}

func TestParseJSErrors(t *testing.T) {
	_, err := ParseJS([]byte(`const OTHER = [];`), "ALL_TEACHERS")
	var formatErr *internal.FormatError
	require.ErrorAs(t, err, &formatErr)

	_, err = ParseJS([]byte(`[]`), "")
	require.ErrorAs(t, err, &formatErr)

	_, err = ParseJS([]byte(`const ALL_TEACHERS = [{"name": };`), "")
	require.ErrorAs(t, err, &formatErr)

	got, err := ParseJS([]byte("let X = [];\n"), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRenderParseRoundTrip(t *testing.T) {
	field := rapid.StringMatching(`[a-zA-Z0-9 山田太郎一般<>&"\\/\t]{0,12}`)
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "n")
		teachers := make([]internal.Teacher, n)
		for i := range teachers {
			teachers[i] = internal.Teacher{Name: field.Draw(t, "name"), Dept: field.Draw(t, "dept")}
		}
		indent := rapid.IntRange(0, 8).Draw(t, "indent")

		data, err := RenderJS(teachers, JSOptions{ConstName: "ALL_TEACHERS", Indent: indent})
		if err != nil {
			t.Fatal(err)
		}
		back, err := ParseJS(data, "ALL_TEACHERS")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(teachers, back); diff != "" {
			t.Fatalf("round trip (-want +got):\n%s", diff)
		}
	})
}
