package pipeline

import (
	"context"
	"errors"
	"io"

	"rostergen/internal"
)

// Collector keeps output records in emission order.
type Collector struct {
	teachers []internal.Teacher
	read     int
	dropped  int
}

func NewCollector() *Collector {
	return &Collector{teachers: []internal.Teacher{}}
}

func (c *Collector) Add(t internal.Teacher) {
	c.read++
	c.teachers = append(c.teachers, t)
}

func (c *Collector) Drop() {
	c.read++
	c.dropped++
}

// Teachers is never nil.
func (c *Collector) Teachers() []internal.Teacher {
	return c.teachers
}

func (c *Collector) Counts() internal.RunCounts {
	return internal.RunCounts{Read: c.read, Dropped: c.dropped, Written: len(c.teachers)}
}

// Collect drains it through the rules. A record without the required
// columns stops the pass with a *internal.SchemaError.
func Collect(ctx context.Context, it RecordIterator, cols internal.Columns, rules Rules) (*Collector, error) {
	c := NewCollector()
	for {
		if err := ctx.Err(); err != nil {
			return c, err
		}
		rec, err := it.Next()
		if errors.Is(err, io.EOF) {
			return c, nil
		}
		if err != nil {
			return c, err
		}

		row, err := internal.NewRosterRow(rec, cols)
		if err != nil {
			return c, err
		}
		if teacher, ok := rules.Apply(row); ok {
			c.Add(teacher)
		} else {
			c.Drop()
		}
	}
}
