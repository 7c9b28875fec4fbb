// Package schema holds the in-memory description of a frame layout: which
// subsystems live at which offsets, and which typed fields to extract from
// each. A Schema is built once, by Load or Parse, and is immutable from then
// on.
package schema

import (
	"github.com/fjdiaz/satreader/codec"
)

// Field is a single typed value at a byte offset relative to its subsystem.
type Field struct {
	Name   string
	Type   string
	Offset int

	// ByteLen is the field width for the raw-bytes type, unused otherwise.
	ByteLen int

	// At most one of CalibExpr and CalibFunc is set. CalibExpr is a
	// calibration expression over raw, CalibFunc names a plugin function.
	CalibExpr string
	CalibFunc string

	// Units is display-only and never interpreted.
	Units string

	// RoundDigits is the number of decimal digits to round a calibrated
	// float to, or -1 when no rounding was requested.
	RoundDigits int
}

// Subsystem is a named region of the frame grouping related fields. Two
// subsystems are the same subsystem iff name and offset match.
type Subsystem struct {
	Name   string
	Offset int
	Fields []Field
}

// Schema is the full frame description.
type Schema struct {
	FrameSize         int
	Endian            codec.Endian
	IncludeFrameIndex bool

	// ReadInMemory selects the caller's buffering policy: decode the whole
	// dump from memory, or stream it frame by frame.
	ReadInMemory bool

	// SortBy optionally names a column to sort the decoded rows by. Only
	// meaningful with ReadInMemory.
	SortBy string

	Subsystems []Subsystem
}

// Columns returns the column keys a decoded row will carry, in row order.
func (s *Schema) Columns() []string {
	var cols []string
	if s.IncludeFrameIndex {
		cols = append(cols, "frame_index")
	}

	seen := make(map[string]bool)
	for _, sub := range s.Subsystems {
		for _, f := range sub.Fields {
			key := sub.Name + "." + f.Name
			if !seen[key] {
				seen[key] = true
				cols = append(cols, key)
			}
		}
	}
	return cols
}

// NumFields reports the total field count across all subsystems.
func (s *Schema) NumFields() (n int) {
	for _, sub := range s.Subsystems {
		n += len(sub.Fields)
	}
	return n
}
