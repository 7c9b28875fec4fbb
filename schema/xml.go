package schema

import (
	"encoding/xml"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/fjdiaz/satreader/codec"
)

// Wire form of the schema document. Offsets are pointers so a missing
// attribute is distinguishable from an explicit zero.
type xmlSchema struct {
	XMLName    xml.Name      `xml:"schema"`
	Version    string        `xml:"version,attr"`
	Settings   *xmlSettings  `xml:"schema_settings"`
	Subsystems *xmlSubsystem `xml:"subsystems"`
}

type xmlSettings struct {
	ReadInMemory      string `xml:"read_in_memory,attr"`
	SortBy            string `xml:"sort_by,attr"`
	FrameSize         int    `xml:"frame_size,attr"`
	Endian            string `xml:"endian,attr"`
	IncludeFrameIndex string `xml:"include_frame_index,attr"`
}

type xmlSubsystem struct {
	Subsystems []struct {
		Name   string     `xml:"name,attr"`
		Offset *int       `xml:"offset,attr"`
		Fields *xmlFields `xml:"fields"`
	} `xml:"subsystem"`
}

// xmlFields is a pointer target so a subsystem missing its <fields> element
// entirely is distinguishable from one whose <fields> is empty.
type xmlFields struct {
	Fields []xmlField `xml:"field"`
}

type xmlField struct {
	Name        string          `xml:"name,attr"`
	Type        string          `xml:"type,attr"`
	Offset      *int            `xml:"offset,attr"`
	Bytes       int             `xml:"bytes,attr"`
	Calibration *xmlCalibration `xml:"calibration"`
}

type xmlCalibration struct {
	Expr  string `xml:"expr,attr"`
	Func  string `xml:"func,attr"`
	Units string `xml:"units,attr"`
	Round string `xml:"round,attr"`
}

// Load reads and validates the XML schema document at path.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read schema %s", path)
	}

	s, err := Parse(data)
	return s, errors.Wrapf(err, "schema %s", path)
}

// Parse validates an XML schema document.
func Parse(data []byte) (*Schema, error) {
	var doc xmlSchema
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "malformed xml")
	}

	if doc.Settings == nil {
		return nil, errors.New("<schema_settings> element is required")
	}
	if doc.Subsystems == nil {
		return nil, errors.New("<subsystems> element is required")
	}

	readInMemory, err := parseBool(doc.Settings.ReadInMemory, "read_in_memory")
	if err != nil {
		return nil, err
	}
	includeFrameIndex, err := parseBool(doc.Settings.IncludeFrameIndex, "include_frame_index")
	if err != nil {
		return nil, err
	}

	if doc.Settings.SortBy != "" && !readInMemory {
		return nil, errors.New("sort_by requires read_in_memory=\"true\"")
	}
	if doc.Settings.FrameSize <= 0 {
		return nil, errors.New("frame_size must be a positive integer")
	}

	endianStr := doc.Settings.Endian
	if endianStr == "" {
		endianStr = "little"
	}
	endian, err := codec.ParseEndian(strings.ToLower(endianStr))
	if err != nil {
		return nil, err
	}

	s := &Schema{
		FrameSize:         doc.Settings.FrameSize,
		Endian:            endian,
		IncludeFrameIndex: includeFrameIndex,
		ReadInMemory:      readInMemory,
		SortBy:            doc.Settings.SortBy,
	}

	for _, se := range doc.Subsystems.Subsystems {
		if se.Name == "" {
			return nil, errors.New("<subsystem> requires a name attribute")
		}
		if se.Offset == nil || *se.Offset < 0 {
			return nil, errors.Errorf("subsystem %s: offset must be present and non-negative", se.Name)
		}
		if se.Fields == nil {
			return nil, errors.Errorf("subsystem %s: <fields> element is required", se.Name)
		}

		sub := Subsystem{Name: se.Name, Offset: *se.Offset}

		for _, fe := range se.Fields.Fields {
			f, err := parseField(fe)
			if err != nil {
				return nil, errors.Wrapf(err, "subsystem %s", se.Name)
			}
			sub.Fields = append(sub.Fields, f)
		}

		s.Subsystems = append(s.Subsystems, sub)
	}

	return s, nil
}

func parseField(fe xmlField) (Field, error) {
	f := Field{
		Name:        fe.Name,
		Type:        fe.Type,
		ByteLen:     fe.Bytes,
		RoundDigits: -1,
	}

	if f.Name == "" {
		return f, errors.New("<field> requires a name attribute")
	}
	if f.Type == "" {
		return f, errors.Errorf("field %s: type attribute is required", f.Name)
	}
	if fe.Offset == nil || *fe.Offset < 0 {
		return f, errors.Errorf("field %s: offset must be present and non-negative", f.Name)
	}
	f.Offset = *fe.Offset

	if cal := fe.Calibration; cal != nil {
		if cal.Expr != "" && cal.Func != "" {
			return f, errors.Errorf("field %s: use either calibration expr or func, not both", f.Name)
		}
		f.CalibExpr = cal.Expr
		f.CalibFunc = cal.Func
		f.Units = cal.Units

		if cal.Round != "" {
			digits, err := strconv.Atoi(cal.Round)
			if err != nil || digits < 0 {
				return f, errors.Errorf("field %s: round must be a non-negative integer, got %q", f.Name, cal.Round)
			}
			f.RoundDigits = digits
		}
	}

	return f, nil
}

var truthStrings = map[string]bool{
	"true": true, "yes": true, "1": true,
	"false": false, "no": false, "0": false,
}

func parseBool(attr, name string) (bool, error) {
	v, ok := truthStrings[strings.ToLower(attr)]
	if !ok {
		return false, errors.Errorf("%s must be one of true, false, yes, no, 1, 0; got %q", name, attr)
	}
	return v, nil
}
