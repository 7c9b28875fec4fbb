// Package calib defines the calibration plugin capability: a named table of
// functions the frame decoder may dispatch raw values to when a field's
// schema names a function instead of an expression. The decoder only ever
// calls through the Plugin interface; it never loads code.
package calib

import (
	"fmt"
	"time"
)

// Plugin is the capability contract the frame decoder trusts.
type Plugin interface {
	// Has reports whether the named calibration function is available.
	Has(name string) bool

	// Call applies the named function to a raw decoded value. Calling an
	// absent name fails with a *PluginError.
	Call(name string, raw interface{}) (interface{}, error)
}

// A PluginError reports a calibration function that is missing from, or
// failed inside, the supplied plugin.
type PluginError struct {
	Name string
	Err  error
}

func (e *PluginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calibration function %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("calibration function %q not found in plugin", e.Name)
}

func (e *PluginError) Unwrap() error { return e.Err }

// Func transforms a raw decoded value into a calibrated one.
type Func func(raw interface{}) (interface{}, error)

// FuncMap is a static Plugin backed by a name table.
type FuncMap map[string]Func

func (m FuncMap) Has(name string) bool {
	_, ok := m[name]
	return ok
}

func (m FuncMap) Call(name string, raw interface{}) (interface{}, error) {
	fn, ok := m[name]
	if !ok {
		return nil, &PluginError{Name: name}
	}

	v, err := fn(raw)
	if err != nil {
		return nil, &PluginError{Name: name, Err: err}
	}
	return v, nil
}

// Builtins returns the calibration functions shipped with the tool.
func Builtins() FuncMap {
	return FuncMap{
		"obt_seconds_to_datetime": OBTSecondsToTime,
	}
}

// The on-board-time counter counts seconds from the GPS epoch.
var obtEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// OBTSecondsToTime converts an on-board-time seconds counter to UTC.
func OBTSecondsToTime(raw interface{}) (interface{}, error) {
	seconds, err := rawSeconds(raw)
	if err != nil {
		return nil, err
	}
	return obtEpoch.Add(time.Duration(seconds * float64(time.Second))), nil
}

func rawSeconds(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case uint64:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return 0, fmt.Errorf("not a numeric raw value: %T", raw)
}
