// SATREADER - A schema-driven reader for raw satellite telemetry frame dumps.
// Copyright (C) 2026 The satreader authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package frame decodes fixed-size telemetry frames into calibrated rows,
// driven by a schema. Decoding a frame is a pure function of the frame bytes,
// the schema and the plugin capability; the first error encountered aborts
// that frame's decode and propagates with subsystem/field context attached.
package frame

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/fjdiaz/satreader/calib"
	"github.com/fjdiaz/satreader/codec"
	"github.com/fjdiaz/satreader/expr"
	"github.com/fjdiaz/satreader/schema"
)

// A SizeError reports a buffer whose length does not fit the schema's frame
// size: a single frame of the wrong length, or a batch buffer that is not an
// exact multiple of it.
type SizeError struct {
	Len       int
	FrameSize int
	Batch     bool
}

func (e *SizeError) Error() string {
	if e.Batch {
		return fmt.Sprintf("buffer length %d is not a multiple of frame size %d", e.Len, e.FrameSize)
	}
	return fmt.Sprintf("frame length %d does not match frame size %d", e.Len, e.FrameSize)
}

// A BoundsError reports a field whose byte range falls outside the frame.
type BoundsError struct {
	Subsystem string
	Field     string
	Offset    int
	Size      int
	FrameSize int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("field %s.%s (offset %d, size %d) overflows frame size %d",
		e.Subsystem, e.Field, e.Offset, e.Size, e.FrameSize)
}

// Decoder decodes frames laid out by one schema, dispatching calibration to
// the expression evaluator or the supplied plugin. Expressions are immutable
// schema content, so each distinct expression is compiled once and reused.
// A Decoder is safe for concurrent use.
type Decoder struct {
	schema *schema.Schema
	plugin calib.Plugin

	mu    sync.Mutex
	progs map[string]*expr.Program
}

// NewDecoder binds a schema and a plugin capability. A nil plugin means no
// calibration functions are available.
func NewDecoder(s *schema.Schema, plugin calib.Plugin) *Decoder {
	if plugin == nil {
		plugin = calib.FuncMap(nil)
	}
	return &Decoder{
		schema: s,
		plugin: plugin,
		progs:  make(map[string]*expr.Program),
	}
}

// Decode decodes one frame into a row. buf must be exactly the schema's
// frame size; frameIndex is the caller's zero-based frame count and is
// emitted as the first column when the schema asks for it.
func (d *Decoder) Decode(buf []byte, frameIndex int) (*Row, error) {
	s := d.schema
	if len(buf) != s.FrameSize {
		return nil, &SizeError{Len: len(buf), FrameSize: s.FrameSize}
	}

	row := newRow(s.NumFields() + 1)
	if s.IncludeFrameIndex {
		row.Set("frame_index", frameIndex)
	}

	for _, sub := range s.Subsystems {
		for _, f := range sub.Fields {
			v, err := d.decodeField(buf, sub, f)
			if err != nil {
				return nil, errors.Wrapf(err, "frame %d: subsystem %s: field %s", frameIndex, sub.Name, f.Name)
			}
			row.Set(sub.Name+"."+f.Name, v)
		}
	}

	return row, nil
}

func (d *Decoder) decodeField(buf []byte, sub schema.Subsystem, f schema.Field) (interface{}, error) {
	size, err := codec.Size(f.Type, f.ByteLen)
	if err != nil {
		return nil, err
	}

	start := sub.Offset + f.Offset
	if start < 0 || start+size > d.schema.FrameSize {
		return nil, &BoundsError{
			Subsystem: sub.Name,
			Field:     f.Name,
			Offset:    start,
			Size:      size,
			FrameSize: d.schema.FrameSize,
		}
	}

	raw, err := codec.Decode(buf[start:start+size], f.Type, d.schema.Endian)
	if err != nil {
		return nil, err
	}

	v := raw
	switch {
	case f.CalibExpr != "":
		in, err := rawFloat(raw)
		if err != nil {
			return nil, err
		}
		p, err := d.prog(f.CalibExpr)
		if err != nil {
			return nil, err
		}
		cal, err := p.Eval(in)
		if err != nil {
			return nil, err
		}
		v = cal

	case f.CalibFunc != "":
		if !d.plugin.Has(f.CalibFunc) {
			return nil, &calib.PluginError{Name: f.CalibFunc}
		}
		v, err = d.plugin.Call(f.CalibFunc, raw)
		if err != nil {
			return nil, err
		}
	}

	if fl, ok := v.(float64); ok && f.RoundDigits >= 0 {
		v = Round(fl, f.RoundDigits)
	}

	return v, nil
}

func (d *Decoder) prog(src string) (*expr.Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.progs[src]; ok {
		return p, nil
	}
	p, err := expr.Parse(src)
	if err != nil {
		return nil, err
	}
	d.progs[src] = p
	return p, nil
}

// DecodeAll decodes every frame in data, in frame order. data must be an
// exact multiple of the schema's frame size.
func (d *Decoder) DecodeAll(data []byte) ([]*Row, error) {
	fs := d.schema.FrameSize
	if len(data)%fs != 0 {
		return nil, &SizeError{Len: len(data), FrameSize: fs, Batch: true}
	}

	rows := make([]*Row, 0, len(data)/fs)
	for i := 0; i*fs < len(data); i++ {
		row, err := d.Decode(data[i*fs:(i+1)*fs], i)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// DecodeAllParallel is DecodeAll sharded across workers. Frames are
// independent, so the shards decode concurrently; the returned rows are in
// frame order regardless, and the error reported is the one from the lowest
// failing frame index.
func (d *Decoder) DecodeAllParallel(data []byte, workers int) ([]*Row, error) {
	fs := d.schema.FrameSize
	if len(data)%fs != 0 {
		return nil, &SizeError{Len: len(data), FrameSize: fs, Batch: true}
	}

	n := len(data) / fs
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		return d.DecodeAll(data)
	}

	rows := make([]*Row, n)
	errs := make([]error, workers)
	chunk := (n + workers - 1) / workers

	wg := new(sync.WaitGroup)
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, (w+1)*chunk
		if hi > n {
			hi = n
		}

		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				row, err := d.Decode(data[i*fs:(i+1)*fs], i)
				if err != nil {
					errs[w] = err
					return
				}
				rows[i] = row
			}
		}(w, lo, hi)
	}
	wg.Wait()

	// Shards cover ascending frame ranges, so the first shard error is the
	// lowest failing frame.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// SortRows stably sorts rows in place by the named column. Every row must
// carry the column.
func SortRows(rows []*Row, key string) error {
	for i, r := range rows {
		if _, ok := r.Get(key); !ok {
			return errors.Errorf("row %d has no column %q to sort by", i, key)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := rows[i].Get(key)
		b, _ := rows[j].Get(key)
		return valueLess(a, b)
	})
	return nil
}

func valueLess(a, b interface{}) bool {
	if af, ok := numeric(a); ok {
		if bf, ok := numeric(b); ok {
			return af < bf
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as < bs
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Before(bt)
		}
	}
	if ab, ok := a.([]byte); ok {
		if bb, ok := b.([]byte); ok {
			return bytes.Compare(ab, bb) < 0
		}
	}
	return formatValue(a) < formatValue(b)
}

func numeric(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case uint64:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func rawFloat(raw interface{}) (float64, error) {
	f, ok := numeric(raw)
	if !ok {
		return 0, errors.Errorf("raw value of type %T cannot feed a calibration expression", raw)
	}
	return f, nil
}

// Round rounds half away from zero to the given number of decimal digits.
func Round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
