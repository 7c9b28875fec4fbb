package csv

import (
	"encoding/csv"
	"io"

	"golang.org/x/xerrors"
)

// Produces a list of fields making up a record.
type Recorder interface {
	Record() []string
}

// An Encoder writes CSV records to an output stream.
type Encoder struct {
	w *csv.Writer
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: csv.NewWriter(w)}
}

// NewDelimited returns a new encoder writing to w with the given column
// delimiter.
func NewDelimited(w io.Writer, delimiter rune) *Encoder {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	return &Encoder{w: cw}
}

// WriteHeader writes the column names as the first record of the stream.
func (enc *Encoder) WriteHeader(columns []string) error {
	err := enc.w.Write(columns)
	enc.w.Flush()
	if err != nil {
		return err
	}
	return enc.w.Error()
}

// Encode writes a CSV record representing v to the stream followed by a
// newline character. Value given must implement the Recorder interface.
func (enc *Encoder) Encode(v interface{}) (err error) {
	defer func() {
		if err, _ = recover().(error); err != nil {
			err = xerrors.Errorf("recovered: %w", err)
		}
	}()

	err = enc.w.Write(v.(Recorder).Record())
	enc.w.Flush()

	return nil
}
