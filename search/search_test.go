package search

import (
	"encoding/binary"
	"testing"
)

const frameSize = 256

func dump(frames int, fill func(frame []byte, i int)) []byte {
	data := make([]byte, frames*frameSize)
	for i := 0; i < frames; i++ {
		fill(data[i*frameSize:(i+1)*frameSize], i)
	}
	return data
}

func TestFindsSteadyCounter(t *testing.T) {
	cfg := Config{FrameSize: frameSize, Min: 1000000, Max: 2000000, Step: 8, Tolerance: 2}

	data := dump(5, func(frame []byte, i int) {
		// A real counter at offset 100, advancing 8s per frame.
		binary.BigEndian.PutUint32(frame[100:], uint32(1500000+8*i))
		// An in-window value at offset 40 that never advances.
		binary.BigEndian.PutUint32(frame[40:], 1500000)
		// Noise outside the window.
		binary.BigEndian.PutUint32(frame[200:], 0xFFFFFFFF)
	})

	got, err := Candidates(data, cfg)
	if err != nil {
		t.Fatalf("%+v\n", err)
	}
	if len(got) != 1 || got[0] != 100 {
		t.Fatalf("candidates: %v, want [100]\n", got)
	}
}

func TestToleratesJitter(t *testing.T) {
	cfg := Config{FrameSize: frameSize, Min: 1, Max: 1 << 30, Step: 8, Tolerance: 2}

	deltas := []uint32{8, 10, 6, 8}
	data := dump(len(deltas)+1, func([]byte, int) {})
	v := uint32(5000)
	for i := 0; i <= len(deltas); i++ {
		binary.BigEndian.PutUint32(data[i*frameSize+32:], v)
		if i < len(deltas) {
			v += deltas[i]
		}
	}

	got, err := Candidates(data, cfg)
	if err != nil {
		t.Fatalf("%+v\n", err)
	}

	found := false
	for _, offset := range got {
		if offset == 32 {
			found = true
		}
	}
	if !found {
		t.Fatalf("jittery counter at 32 rejected: %v\n", got)
	}
}

func TestRejectsBackwardsCounter(t *testing.T) {
	cfg := Config{FrameSize: frameSize, Min: 1, Max: 1 << 30, Step: 8, Tolerance: 2}

	data := dump(3, func(frame []byte, i int) {
		binary.BigEndian.PutUint32(frame[64:], uint32(9000-8*i))
	})

	got, err := Candidates(data, cfg)
	if err != nil {
		t.Fatalf("%+v\n", err)
	}
	for _, offset := range got {
		if offset == 64 {
			t.Fatalf("backwards counter accepted: %v\n", got)
		}
	}
}

func TestSingleFrameSkipsRefine(t *testing.T) {
	cfg := Config{FrameSize: frameSize, Min: 100, Max: 200, Step: 8, Tolerance: 2}

	data := dump(1, func(frame []byte, i int) {
		binary.BigEndian.PutUint32(frame[8:], 150)
	})

	got, err := Candidates(data, cfg)
	if err != nil {
		t.Fatalf("%+v\n", err)
	}
	if len(got) == 0 || got[0] != 8 {
		t.Fatalf("candidates: %v, want offset 8 first\n", got)
	}
}

func TestErrors(t *testing.T) {
	if _, err := Candidates(nil, Config{FrameSize: 4}); err == nil {
		t.Fatal("expected error for tiny frame size")
	}
	if _, err := Candidates(make([]byte, 10), Config{FrameSize: 100}); err == nil {
		t.Fatal("expected error for dump smaller than one frame")
	}
}
