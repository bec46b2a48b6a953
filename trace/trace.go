// Package trace captures wire values cycle by cycle and stores them, either
// as a rendered text waveform or in a SQLite database.
package trace

import (
	"fmt"
	"io"
)

// A Source exposes the named wire values of a simulation's latest cycle.
type Source interface {
	Inspect(name string) (uint64, error)
}

// A Trace records the values of selected wires, one sample per cycle.
type Trace struct {
	names  []string
	values map[string][]uint64
	cycles int
}

// NewTrace creates a trace watching the named wires.
func NewTrace(names ...string) *Trace {
	values := make(map[string][]uint64, len(names))
	for _, n := range names {
		values[n] = nil
	}

	return &Trace{
		names:  append([]string{}, names...),
		values: values,
	}
}

// Capture samples all watched wires from the source, recording one cycle.
func (t *Trace) Capture(src Source) error {
	for _, n := range t.names {
		v, err := src.Inspect(n)
		if err != nil {
			return fmt.Errorf("trace capture: %w", err)
		}

		t.values[n] = append(t.values[n], v)
	}

	t.cycles++

	return nil
}

// Cycles returns the number of captured cycles.
func (t *Trace) Cycles() int {
	return t.cycles
}

// Values returns the samples of one wire, oldest first.
func (t *Trace) Values(name string) []uint64 {
	return t.values[name]
}

// Render writes the trace as text, one wire per line.
func (t *Trace) Render(w io.Writer) {
	width := 0
	for _, n := range t.names {
		if len(n) > width {
			width = len(n)
		}
	}

	for _, n := range t.names {
		fmt.Fprintf(w, "%-*s", width+1, n)
		for _, v := range t.values[n] {
			fmt.Fprintf(w, " %d", v)
		}
		fmt.Fprintln(w)
	}
}

// A WireValueEntry is one recorded sample.
type WireValueEntry struct {
	Cycle int
	Wire  string
	Value uint64
}

// DumpTo stores the whole trace through a data recorder and flushes it.
func (t *Trace) DumpTo(rec DataRecorder) {
	rec.CreateTable("wire_values", WireValueEntry{})

	for _, n := range t.names {
		for cycle, v := range t.values[n] {
			rec.InsertData("wire_values", WireValueEntry{
				Cycle: cycle,
				Wire:  n,
				Value: v,
			})
		}
	}

	rec.Flush()
}
