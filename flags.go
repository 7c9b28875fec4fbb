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
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/fjdiaz/satreader/csv"
)

var schemaFilename = flag.String("schema", "", "path to the XML schema describing the frame layout")
var inputFilename = flag.String("input", "", "path to the binary frame dump to decode")
var outputFilename = flag.String("output", "", "path to write decoded rows to, empty or '-' for stdout")

var format = flag.String("format", "csv", "decoded row output format: csv, json or plain")
var delimiter = flag.String("delimiter", ",", "column delimiter for csv output")

var workers = flag.Int("workers", 1, "decode frames on this many goroutines, in-memory mode only")

var searchOBT = flag.Bool("searchobt", false, "scan the dump for candidate on-board-time offsets instead of decoding")
var obtMin = flag.Uint("obtmin", 0, "searchobt: lowest plausible counter value, seconds since the counter epoch")
var obtMax = flag.Uint("obtmax", 0, "searchobt: highest plausible counter value")
var obtStep = flag.Uint("obtstep", 8, "searchobt: expected counter increment per frame")
var obtTolerance = flag.Uint("obttolerance", 2, "searchobt: allowed drift from the expected increment")

var version = flag.Bool("version", false, "display build date and commit hash")

var encoder Encoder
var csvEncoder *csv.Encoder
var output *os.File

// JSON and CSV encoders both implement this interface so we can simplify row
// output formatting.
type Encoder interface {
	Encode(interface{}) error
}

type PlainEncoder struct {
	w *os.File
}

func (pe PlainEncoder) Encode(msg interface{}) (err error) {
	_, err = fmt.Fprintln(pe.w, msg)
	return
}

func EnvOverride() {
	flag.VisitAll(func(f *flag.Flag) {
		envName := "SATREADER_" + strings.ToUpper(f.Name)
		flagValue := os.Getenv(envName)
		if flagValue != "" {
			if err := flag.Set(f.Name, flagValue); err != nil {
				log.Printf(
					"Environment variable %q failed to override flag %q with value %q: %q\n",
					envName, f.Name, flagValue, err,
				)
			} else {
				log.Printf("Environment variable %q overrides flag %q with %q\n", envName, f.Name, flagValue)
			}
		}
	})
}

func HandleFlags() {
	if *schemaFilename == "" || *inputFilename == "" {
		flag.Usage()
		log.Fatal("-schema and -input are required")
	}

	var err error
	output = os.Stdout
	if *outputFilename != "" && *outputFilename != "-" {
		output, err = os.Create(*outputFilename)
		if err != nil {
			log.Fatal("Error creating output file: ", err)
		}
	}

	*format = strings.ToLower(*format)
	switch *format {
	case "csv":
		delim, size := utf8.DecodeRuneInString(*delimiter)
		if size == 0 || size != len(*delimiter) {
			log.Fatalf("delimiter must be a single character, got %q", *delimiter)
		}
		csvEncoder = csv.NewDelimited(output, delim)
		encoder = csvEncoder
	case "json":
		encoder = json.NewEncoder(output)
	case "plain":
		encoder = PlainEncoder{output}
	default:
		log.Fatalf("unknown format %q, want csv, json or plain", *format)
	}
}
