/*
SATREADER extracts calibrated telemetry from raw satellite frame dump files,
driven entirely by an XML schema describing the frame layout.

	satreader -schema schema.xml -input data.bin -output out.csv
	satreader -schema schema.xml -input data.bin -output out.csv -delimiter ";"
	satreader -schema schema.xml -input data.bin -format json

Command-line Flags:

	-schema=""

Path to the XML schema file. Required.

	-input=""

Path to the binary frame dump. Required. The file size must be an exact
multiple of the schema's frame size.

	-output=""

Path to write decoded rows to. Empty or "-" writes to stdout.

	-format="csv"

Row output format: csv, json or plain. CSV output starts with a header record
naming every column; JSON output is one object per line with keys in column
order.

	-delimiter=","

Column delimiter for csv output. Must be a single character.

	-workers=1

Number of goroutines to decode frames on. Frames are independent, so decoding
shards safely; row order always matches frame order. Only applies when the
schema selects read_in_memory.

	-searchobt=false

Instead of decoding, scan the dump for byte offsets that plausibly hold a
32-bit big-endian on-board-time counter, bounded by -obtmin/-obtmax and
advancing about -obtstep seconds per frame (within -obttolerance). Prints one
candidate offset per line.

Every flag can also be set through an environment variable named
SATREADER_<FLAG>, for example SATREADER_FORMAT=json.

XML schema example:

	<?xml version="1.0" encoding="UTF-8"?>
	<schema version="1.0">
	    <schema_settings read_in_memory="true" sort_by="CDH.OBT" frame_size="4000" endian="big" include_frame_index="false"/>
	    <subsystems>
	        <subsystem name="PCS" offset="1604">
	            <fields>
	                <field name="vBatAverage" type="u16" offset="750">
	                    <calibration expr="raw * 0.01873128 + (-38.682956)" units="V" round="3"/>
	                </field>
	            </fields>
	        </subsystem>
	        <subsystem name="CDH" offset="8">
	            <fields>
	                <field name="OBT" type="u32" offset="92">
	                    <calibration func="obt_seconds_to_datetime"/>
	                </field>
	            </fields>
	        </subsystem>
	    </subsystems>
	</schema>

Field types are u8/i8/u16/i16/u32/i32/u64/i64, f32/f64 (also spelled
float32/float64), and bytes with a required bytes="N" length attribute. Field
offsets are relative to their subsystem's offset, which is relative to the
frame start.

A calibration element may carry either an expr attribute, a restricted
arithmetic expression over the raw decoded value named raw, or a func
attribute naming a built-in calibration function. Expressions support
+ - * / // % **, comparisons, and/or, "x if cond else y", and the math
functions sin cos tan asin acos atan sqrt log log10 exp fabs floor ceil round
abs min max pow, bare or math.-qualified. Anything else is rejected before
evaluation.
*/
package main
