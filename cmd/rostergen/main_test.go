package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rostergen/internal"
	"rostergen/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := bytes.NewBuffer(nil)
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeRoster(t *testing.T, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(config.DefaultInputPath, []byte(data), 0o644))
}

func TestConvertWithDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	writeRoster(t, "\ufeff所属,氏名\n事務局,A\nAコース,B\n一般科目,C\n")

	out, err := execute(t)
	require.NoError(t, err)
	assert.Equal(t, "Saved to teachers_data.js\n", out)

	data, err := os.ReadFile(config.DefaultOutputPath)
	require.NoError(t, err)
	assert.Equal(t, "const ALL_TEACHERS = [\n    {\n        \"name\": \"B\",\n        \"dept\": \"A\"\n    },\n    {\n        \"name\": \"C\",\n        \"dept\": \"一般\"\n    }\n];", string(data))
}

func TestConvertSchemaError(t *testing.T) {
	chdir(t, t.TempDir())
	writeRoster(t, "部署,名前\n機械,A\n")

	_, err := execute(t)
	var schemaErr *internal.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, `Error: Headers found are ['部署', '名前']`, schemaErr.Diagnostic())

	_, statErr := os.Stat(config.DefaultOutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLookupSearchAndHistory(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("staff.csv", []byte("所属,氏名\n機械工学コース,山田　太郎\n一般科目,井上　千鶴子\n"), 0o644))

	out, err := execute(t, "--input", "staff.csv", "--output", "staff.js", "--history", "runs.db")
	require.NoError(t, err)
	assert.Equal(t, "Saved to staff.js\n", out)

	out, err = execute(t, "lookup", "--data", "staff.js", "山田太郎、鈴木")
	require.NoError(t, err)
	assert.Contains(t, out, "山田　太郎")
	assert.Contains(t, out, "normalized")
	assert.Contains(t, out, "none")

	out, err = execute(t, "search", "--output", "staff.js", "一般")
	require.NoError(t, err)
	assert.Contains(t, out, "井上　千鶴子")
	assert.NotContains(t, out, "山田　太郎")

	out, err = execute(t, "history", "--history", "runs.db")
	require.NoError(t, err)
	assert.Contains(t, out, "staff.csv")
	assert.Contains(t, out, "ok")

	_, err = execute(t, "history")
	assert.EqualError(t, err, "history.db_path is not set")
}
