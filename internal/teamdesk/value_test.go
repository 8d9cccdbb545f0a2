package teamdesk

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestValue_Float(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		want   float64
		wantOK bool
	}{
		{"Number", Number(12.5), 12.5, true},
		{"NumericString", Text("42"), 42, true},
		{"ThousandsSeparator", Text(" 1,250.5 "), 1250.5, true},
		{"Blank", Text("   "), 0, false},
		{"Garbage", Text("12kg"), 0, false},
		{"Infinity", Text("Infinity"), 0, false},
		{"Absent", Value{}, 0, false},
		{"InfiniteNumber", Number(math.Inf(1)), 0, false},
		{"NaN", Number(math.NaN()), 0, false},
		{"OverflowString", Text("1e400"), 0, false},
		{"LargestFinite", Text("1e308"), 1e308, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.Float()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Float() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestValue_Display(t *testing.T) {
	tests := []struct {
		name    string
		value   Value
		display string
		key     string
	}{
		{"TrimmedText", Text("  Block A1 "), "Block A1", "block a1"},
		{"Integer", Number(12), "12", "12"},
		{"Fraction", Number(1.5), "1.5", "1.5"},
		{"Absent", Value{}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.String(); got != tt.display {
				t.Errorf("String() = %q, want %q", got, tt.display)
			}
			if got := tt.value.Key(); got != tt.key {
				t.Errorf("Key() = %q, want %q", got, tt.key)
			}
		})
	}
}

func TestRow_UnmarshalMixedTypes(t *testing.T) {
	payload := `{
		"Block": 7,
		"Cultivar": " Valencia ",
		"Pack QTY": "1,200",
		"Weight": null,
		"Count/Size": 72.4,
		"@row.id": "991",
		"Unmapped Column": {"nested": true}
	}`

	var row Row
	if err := json.Unmarshal([]byte(payload), &row); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if got := row.Block.String(); got != "7" {
		t.Errorf("Block = %q, want 7", got)
	}
	if got := row.Cultivar.String(); got != "Valencia" {
		t.Errorf("Cultivar = %q, want Valencia", got)
	}
	if got := row.PackQty.FloatOr(0); got != 1200 {
		t.Errorf("Pack QTY = %v, want 1200", got)
	}
	if !row.Weight.IsZero() {
		t.Error("null Weight should be absent")
	}
	if got := row.RowID.String(); got != "991" {
		t.Errorf("@row.id = %q, want 991", got)
	}
}

func TestRow_RoundTripKeepsKinds(t *testing.T) {
	in := Row{Block: Number(12), Brand: Text("Acme"), PackQty: Number(40)}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out Row
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out.Block != in.Block || out.Brand != in.Brand || out.PackQty != in.PackQty {
		t.Errorf("round trip changed row: %+v", out)
	}
	if !out.Weight.IsZero() {
		t.Error("absent column should stay absent")
	}
}

func TestRow_Fallbacks(t *testing.T) {
	row := Row{BlockNo: Text("B2"), ID: Text("55"), PUC: Text("PUC-9")}
	if got := row.BlockValue().String(); got != "B2" {
		t.Errorf("BlockValue() = %q, want B2", got)
	}
	if got := row.PalletValue().String(); got != "55" {
		t.Errorf("PalletValue() = %q, want 55", got)
	}
	if got := row.DirectPuc().String(); got != "PUC-9" {
		t.Errorf("DirectPuc() = %q, want PUC-9", got)
	}

	// An explicitly empty Block does not fall through to Block No.
	row.Block = Text("")
	if got := row.BlockValue().String(); got != "" {
		t.Errorf("BlockValue() with empty Block = %q, want empty", got)
	}
}

func TestValue_Time(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		want   string
		wantOK bool
	}{
		{"RFC3339", Text("2024-03-01T22:30:00Z"), "2024-03-01T22:30:00Z", true},
		{"OffsetShiftsDay", Text("2024-03-02T01:00:00+02:00"), "2024-03-01T23:00:00Z", true},
		{"DateOnly", Text("2024-03-01"), "2024-03-01T00:00:00Z", true},
		{"SlashedUS", Text("03/01/2024 10:15"), "2024-03-01T10:15:00Z", true},
		{"Garbage", Text("not a date"), "", false},
		{"Absent", Value{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.Time()
			if ok != tt.wantOK {
				t.Fatalf("Time() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.UTC().Format(time.RFC3339) != tt.want {
				t.Errorf("Time() = %s, want %s", got.UTC().Format(time.RFC3339), tt.want)
			}
		})
	}
}

func TestDecodeRows_OutOfRangeNumber(t *testing.T) {
	rows, err := decodeRows([]byte(`[{"Id":1,"Weight":1e400,"Pack QTY":-1e400},{"Id":2,"Weight":10}]`))
	if err != nil {
		t.Fatalf("decodeRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	if _, ok := rows[0].Weight.Float(); ok {
		t.Error("overflowing Weight should not be numeric")
	}
	if _, ok := rows[0].PackQty.Float(); ok {
		t.Error("overflowing Pack QTY should not be numeric")
	}
	if rows[0].Weight.IsZero() {
		t.Error("overflowing Weight is present, not null")
	}
	if got := rows[0].Weight.String(); got != "Infinity" {
		t.Errorf("Weight display = %q, want Infinity", got)
	}
	if got := rows[1].Weight.FloatOr(0); got != 10 {
		t.Errorf("second row Weight = %v, want 10", got)
	}

	data, err := json.Marshal(rows[0])
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back Row
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("re-decode failed: %v", err)
	}
	if !back.Weight.IsZero() {
		t.Error("non-finite numbers are written as null")
	}
}
