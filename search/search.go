// Package search is an offline heuristic for locating a plausible
// on-board-time counter in a dump with an unknown layout. It scans the first
// frame for 32-bit big-endian values inside a caller-supplied time window,
// then keeps only the offsets whose value advances by a roughly constant
// number of seconds from frame to frame.
package search

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Config bounds the scan. Min and Max delimit the plausible counter window
// (seconds since the counter epoch); Step is the expected per-frame
// increment and Tolerance how far off it may drift.
type Config struct {
	FrameSize int
	Min, Max  uint32
	Step      uint32
	Tolerance uint32
}

// Candidates returns the byte offsets within a frame that hold a plausible
// counter, in ascending order.
func Candidates(data []byte, cfg Config) ([]int, error) {
	if cfg.FrameSize <= 4 {
		return nil, errors.Errorf("frame size %d is too small to scan", cfg.FrameSize)
	}
	if len(data) < cfg.FrameSize {
		return nil, errors.Errorf("dump holds no complete frame of %d bytes", cfg.FrameSize)
	}

	frames := len(data) / cfg.FrameSize

	// First pass: any in-window value in the first frame is a candidate.
	var candidates []int
	first := data[:cfg.FrameSize]
	for offset := 0; offset+4 <= cfg.FrameSize; offset++ {
		v := binary.BigEndian.Uint32(first[offset:])
		if v >= cfg.Min && v <= cfg.Max {
			candidates = append(candidates, offset)
		}
	}

	if frames < 2 {
		return candidates, nil
	}
	return refine(data, frames, candidates, cfg), nil
}

// refine drops candidates whose value does not advance monotonically by
// about Step seconds per frame.
func refine(data []byte, frames int, offsets []int, cfg Config) []int {
	var good []int

	for _, offset := range offsets {
		prev := binary.BigEndian.Uint32(data[offset:])
		ok := true

		for i := 1; i < frames; i++ {
			v := binary.BigEndian.Uint32(data[i*cfg.FrameSize+offset:])
			if v < prev {
				ok = false
				break
			}
			delta := v - prev
			if delta > cfg.Step+cfg.Tolerance || delta+cfg.Tolerance < cfg.Step {
				ok = false
				break
			}
			prev = v
		}

		if ok {
			good = append(good, offset)
		}
	}

	return good
}
