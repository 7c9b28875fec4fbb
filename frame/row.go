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

package frame

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row is one decoded frame: an ordered mapping from column key to calibrated
// value. Values are uint64/int64 (raw integers), float64 (floats and
// expression results), []byte (raw-bytes fields), int (frame_index), or
// whatever a plugin function returned.
type Row struct {
	keys []string
	vals map[string]interface{}
}

func newRow(capacity int) *Row {
	return &Row{vals: make(map[string]interface{}, capacity)}
}

// Set inserts or overwrites a column. A key written twice keeps its original
// position; schema authors reusing a field name across subsystems get
// last-write-wins.
func (r *Row) Set(key string, v interface{}) {
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

// Get returns the value stored under key.
func (r *Row) Get(key string) (interface{}, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Keys returns the column keys in insertion order.
func (r *Row) Keys() []string { return r.keys }

// Len reports the number of columns.
func (r *Row) Len() int { return len(r.keys) }

// Record renders the row's values as strings in column order, for CSV output.
func (r *Row) Record() []string {
	rec := make([]string, len(r.keys))
	for i, key := range r.keys {
		rec[i] = formatValue(r.vals[key])
	}
	return rec
}

// MarshalJSON emits the row as an object with keys in column order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		v, err := json.Marshal(jsonValue(r.vals[key]))
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Row) String() string {
	pairs := make([]string, len(r.keys))
	for i, key := range r.keys {
		pairs[i] = key + ":" + formatValue(r.vals[key])
	}
	return "{" + strings.Join(pairs, " ") + "}"
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case uint64:
		return strconv.FormatUint(t, 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case []byte:
		return hex.EncodeToString(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

// jsonValue keeps CSV and JSON output consistent for the value kinds the
// standard library would otherwise render differently.
func jsonValue(v interface{}) interface{} {
	switch t := v.(type) {
	case []byte:
		return hex.EncodeToString(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	}
	return v
}
