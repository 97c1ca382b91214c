package laserball

import (
	"fmt"
	"sort"

	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer | constraints.Float
}

// Jagged is a per-event array: one inner slice per event.
type Jagged [][]float64

// JaggedOf converts any numeric per-event array to a Jagged.
func JaggedOf[T Number](events [][]T) Jagged {
	out := make(Jagged, len(events))
	for i, ev := range events {
		out[i] = toFloat64s(ev)
	}
	return out
}

func toFloat64s[T Number](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// Flatten concatenates every event, discarding event boundaries.
func (j Jagged) Flatten() []float64 {
	flat := make([]float64, 0, j.Count())
	for _, ev := range j {
		flat = append(flat, ev...)
	}
	return flat
}

// Count returns the total number of elements over all events.
func (j Jagged) Count() int {
	n := 0
	for _, ev := range j {
		n += len(ev)
	}
	return n
}

// EventBatch is a bounded chunk of consecutive events. Every field holds
// exactly Len() events.
type EventBatch struct {
	// Entry is the index of the first event within its source file.
	Entry  int64
	Source string
	Fields map[string]Jagged
	n      int
}

func NewEventBatch(entry int64, nEvents int, fields map[string]Jagged) (*EventBatch, error) {
	if fields == nil {
		fields = make(map[string]Jagged)
	}
	for name, values := range fields {
		if len(values) != nEvents {
			return nil, &DataMismatchError{
				What:     fmt.Sprintf("field %q event count", name),
				Expected: nEvents,
				Got:      len(values),
				Entry:    entry,
			}
		}
	}
	return &EventBatch{Entry: entry, Fields: fields, n: nEvents}, nil
}

func (b *EventBatch) Len() int {
	return b.n
}

func (b *EventBatch) Field(name string) (Jagged, error) {
	values, ok := b.Fields[name]
	if !ok {
		return nil, &ConfigurationError{
			Param:  "expressions",
			Reason: fmt.Sprintf("field %q is not materialized (have %v)", name, b.Names()),
		}
	}
	return values, nil
}

func (b *EventBatch) Names() []string {
	names := make([]string, 0, len(b.Fields))
	for name := range b.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Slice returns events [beg, end) sharing the underlying arrays.
func (b *EventBatch) Slice(beg, end int) *EventBatch {
	fields := make(map[string]Jagged, len(b.Fields))
	for name, values := range b.Fields {
		fields[name] = values[beg:end]
	}
	return &EventBatch{Entry: b.Entry + int64(beg), Source: b.Source, Fields: fields, n: end - beg}
}

// Project keeps only the named fields. A nil list keeps everything.
func (b *EventBatch) Project(names []string) (*EventBatch, error) {
	if names == nil {
		return b, nil
	}
	fields := make(map[string]Jagged, len(names))
	for _, name := range names {
		values, err := b.Field(name)
		if err != nil {
			return nil, err
		}
		fields[name] = values
	}
	return &EventBatch{Entry: b.Entry, Source: b.Source, Fields: fields, n: b.n}, nil
}

// Bytes estimates the in-memory size of the batch.
func (b *EventBatch) Bytes() int64 {
	var total int64
	for _, values := range b.Fields {
		total += int64(values.Count())*8 + int64(len(values))*24
	}
	return total
}
