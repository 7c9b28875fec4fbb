package frame

import (
	"testing"
	"time"
)

func TestRowOrderAndRecord(t *testing.T) {
	row := newRow(4)
	row.Set("frame_index", 7)
	row.Set("PCS.vBatAverage", 18.731)
	row.Set("CDH.OBT", time.Date(1980, time.January, 7, 0, 0, 0, 0, time.UTC))
	row.Set("PCS.blob", []byte{0xDE, 0xAD})

	keys := row.Keys()
	want := []string{"frame_index", "PCS.vBatAverage", "CDH.OBT", "PCS.blob"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys: %v != %v\n", keys, want)
		}
	}

	rec := row.Record()
	wantRec := []string{"7", "18.731", "1980-01-07T00:00:00Z", "dead"}
	for i := range wantRec {
		if rec[i] != wantRec[i] {
			t.Fatalf("record: %v != %v\n", rec, wantRec)
		}
	}
}

func TestRowOverwriteKeepsPosition(t *testing.T) {
	row := newRow(2)
	row.Set("a", uint64(1))
	row.Set("b", uint64(2))
	row.Set("a", uint64(3))

	if row.Len() != 2 || row.Keys()[0] != "a" {
		t.Fatalf("keys: %v\n", row.Keys())
	}
	v, _ := row.Get("a")
	if v.(uint64) != 3 {
		t.Fatalf("overwrite: %v != 3\n", v)
	}
}

func TestRowJSON(t *testing.T) {
	row := newRow(3)
	row.Set("frame_index", 0)
	row.Set("A.x", int64(-5))
	row.Set("A.t", time.Date(1980, time.January, 6, 0, 0, 8, 0, time.UTC))

	b, err := row.MarshalJSON()
	if err != nil {
		t.Fatalf("%+v\n", err)
	}

	want := `{"frame_index":0,"A.x":-5,"A.t":"1980-01-06T00:00:08Z"}`
	if string(b) != want {
		t.Fatalf("json: %s != %s\n", b, want)
	}
}
