package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"rostergen/internal"
)

type sliceIterator struct {
	recs []internal.Record
	next int
}

func (s *sliceIterator) Next() (internal.Record, error) {
	if s.next >= len(s.recs) {
		return internal.Record{}, io.EOF
	}
	rec := s.recs[s.next]
	s.next++
	return rec, nil
}

func (s *sliceIterator) Close() error { return nil }

func records(headers []string, rows ...[]string) *sliceIterator {
	it := &sliceIterator{}
	for i, row := range rows {
		it.recs = append(it.recs, buildRecord(i+2, headers, row))
	}
	return it
}

var rosterColumns = internal.Columns{Dept: "所属", Name: "氏名"}

func TestCollectScenario(t *testing.T) {
	it := records([]string{"所属", "氏名"},
		[]string{"事務局", "A"},
		[]string{"Aコース", "B"},
		[]string{"一般科目", "C"},
	)
	c, err := Collect(context.Background(), it, rosterColumns, DefaultRules)
	require.NoError(t, err)

	assert.Equal(t, []internal.Teacher{
		{Name: "B", Dept: "A"},
		{Name: "C", Dept: "一般"},
	}, c.Teachers())
	assert.Equal(t, internal.RunCounts{Read: 3, Dropped: 1, Written: 2}, c.Counts())
}

func TestCollectEmpty(t *testing.T) {
	c, err := Collect(context.Background(), records([]string{"所属", "氏名"}), rosterColumns, DefaultRules)
	require.NoError(t, err)
	assert.NotNil(t, c.Teachers())
	assert.Empty(t, c.Teachers())
}

func TestCollectStopsOnSchemaError(t *testing.T) {
	it := records([]string{"部署", "氏名"}, []string{"機械", "A"}, []string{"電気", "B"})
	c, err := Collect(context.Background(), it, rosterColumns, DefaultRules)

	var schemaErr *internal.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, 2, schemaErr.Line)
	assert.Equal(t, []string{"所属"}, schemaErr.Missing)
	assert.Equal(t, `Error: Headers found are ['部署', '氏名']`, schemaErr.Diagnostic())
	assert.Empty(t, c.Teachers())
	assert.Equal(t, 1, it.next)
}

func TestCollectHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(ctx, records([]string{"所属", "氏名"}, []string{"A", "B"}), rosterColumns, DefaultRules)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCollectKeepsInputOrder(t *testing.T) {
	depts := []string{"機械", "電気コース", "事務局", "一般科目", "総務事務局", "情報"}
	rapid.Check(t, func(t *rapid.T) {
		picked := rapid.SliceOf(rapid.SampledFrom(depts)).Draw(t, "depts")
		rows := make([][]string, len(picked))
		var want []string
		for i, d := range picked {
			name := fmt.Sprintf("T%d", i)
			rows[i] = []string{d, name}
			if !strings.Contains(d, "事務局") {
				want = append(want, name)
			}
		}

		c, err := Collect(context.Background(), records([]string{"所属", "氏名"}, rows...), rosterColumns, DefaultRules)
		if err != nil {
			t.Fatal(err)
		}
		var got []string
		for _, teacher := range c.Teachers() {
			got = append(got, teacher.Name)
		}
		if !slices.Equal(want, got) {
			t.Fatalf("order: want %v, got %v", want, got)
		}
		if c.Counts().Read != len(picked) {
			t.Fatalf("read=%d, want %d", c.Counts().Read, len(picked))
		}
	})
}
