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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/fjdiaz/satreader/calib"
	"github.com/fjdiaz/satreader/frame"
	"github.com/fjdiaz/satreader/schema"
	"github.com/fjdiaz/satreader/search"
)

var (
	buildTag   = "dev"     // v#.#.#
	buildDate  = "unknown" // date -u '+%Y-%m-%d'
	commitHash = "unknown" // git rev-parse HEAD
)

func init() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

func main() {
	EnvOverride()
	flag.Parse()

	if *version {
		fmt.Println("Build Tag: ", buildTag)
		fmt.Println("Build Date:", buildDate)
		fmt.Println("Commit:    ", commitHash)
		os.Exit(0)
	}

	HandleFlags()

	s, err := schema.Load(*schemaFilename)
	if err != nil {
		log.Fatal(err)
	}

	log.WithFields(log.Fields{
		"frame_size": s.FrameSize,
		"endian":     s.Endian.String(),
		"subsystems": len(s.Subsystems),
		"fields":     s.NumFields(),
		"in_memory":  s.ReadInMemory,
	}).Info("schema loaded")

	fi, err := os.Stat(*inputFilename)
	if err != nil {
		log.Fatal("Error reading input file: ", err)
	}
	if fi.Size()%int64(s.FrameSize) != 0 {
		log.Fatalf("input size %d is not a multiple of frame size %d", fi.Size(), s.FrameSize)
	}

	if *searchOBT {
		runSearch(s)
		return
	}

	dec := frame.NewDecoder(s, calib.Builtins())

	var rows int
	if s.ReadInMemory {
		rows, err = decodeInMemory(dec, s)
	} else {
		rows, err = decodeStream(dec, s)
	}
	if err != nil {
		log.Fatal(err)
	}

	if output != os.Stdout {
		if err := output.Close(); err != nil {
			log.Fatal("Error closing output file: ", err)
		}
	}

	log.WithFields(log.Fields{
		"rows":   rows,
		"output": output.Name(),
	}).Info("decode complete")
}

// decodeInMemory reads the whole dump, decodes every frame, optionally sorts
// the rows by the schema's sort_by column, and writes them out.
func decodeInMemory(dec *frame.Decoder, s *schema.Schema) (int, error) {
	data, err := os.ReadFile(*inputFilename)
	if err != nil {
		return 0, err
	}

	var rows []*frame.Row
	if *workers > 1 {
		rows, err = dec.DecodeAllParallel(data, *workers)
	} else {
		rows, err = dec.DecodeAll(data)
	}
	if err != nil {
		return 0, err
	}

	if s.SortBy != "" {
		log.WithField("column", s.SortBy).Info("sorting rows")
		if err := frame.SortRows(rows, s.SortBy); err != nil {
			return 0, err
		}
	}

	// An empty dump produces an empty output, not a lone header row.
	if len(rows) == 0 {
		return 0, nil
	}
	if err := writeHeader(s); err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := encoder.Encode(row); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// decodeStream reads the dump one frame at a time and writes each row as it
// decodes, never holding more than one frame in memory. A partial trailing
// frame is an error.
func decodeStream(dec *frame.Decoder, s *schema.Schema) (int, error) {
	in, err := os.Open(*inputFilename)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	buf := make([]byte, s.FrameSize)
	for i := 0; ; i++ {
		_, err := io.ReadFull(in, buf)
		if err == io.EOF {
			return i, nil
		}
		if err == io.ErrUnexpectedEOF {
			return i, fmt.Errorf("partial frame at end of file after %d frames", i)
		}
		if err != nil {
			return i, err
		}

		// The header waits for the first frame so an empty dump produces an
		// empty output.
		if i == 0 {
			if err := writeHeader(s); err != nil {
				return i, err
			}
		}

		row, err := dec.Decode(buf, i)
		if err != nil {
			return i, err
		}
		if err := encoder.Encode(row); err != nil {
			return i, err
		}
	}
}

func writeHeader(s *schema.Schema) error {
	if csvEncoder == nil {
		return nil
	}
	return csvEncoder.WriteHeader(s.Columns())
}

func runSearch(s *schema.Schema) {
	data, err := os.ReadFile(*inputFilename)
	if err != nil {
		log.Fatal("Error reading input file: ", err)
	}

	candidates, err := search.Candidates(data, search.Config{
		FrameSize: s.FrameSize,
		Min:       uint32(*obtMin),
		Max:       uint32(*obtMax),
		Step:      uint32(*obtStep),
		Tolerance: uint32(*obtTolerance),
	})
	if err != nil {
		log.Fatal(err)
	}

	log.WithField("candidates", len(candidates)).Info("search complete")
	for _, offset := range candidates {
		fmt.Fprintln(output, offset)
	}
}
