package export

import (
	"bytes"
	"reflect"
	"testing"

	"packhouse-temporal/internal/packhouse"

	"github.com/xuri/excelize/v2"
)

func TestWriteRecords(t *testing.T) {
	records := []packhouse.Record{
		{
			Variety: "Valencia", Season: "2024", Block: "A1", Date: "2024-03-01", Puc: "P100",
			TonsTipped: 1.575, CtnWeight: 0.75, BinsTipped: 2, ClassI: 100, ClassII: 50,
			PackPercentage: 0.4762,
			PackingProgress: []packhouse.PackingProgressMetric{
				{Key: "Large", Label: "Large", Value: 100},
				{Key: "uk", Label: "uk", Value: 50},
			},
		},
		{Variety: "Navel", Season: "2024", Block: "all", Date: "2024-03-02"},
	}

	var buf bytes.Buffer
	if err := WriteRecords(&buf, records); err != nil {
		t.Fatalf("WriteRecords failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{RecordsSheet, PackingSheet}) {
		t.Errorf("sheets = %v", got)
	}

	rows, err := f.GetRows(RecordsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	want := []string{"Valencia", "2024", "A1", "2024-03-01", "P100", "1.575", "0.75", "2", "100", "50", "0", "0.4762"}
	if !reflect.DeepEqual(rows[1], want) {
		t.Errorf("record row = %v, want %v", rows[1], want)
	}

	packing, err := f.GetRows(PackingSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(packing) != 3 {
		t.Fatalf("expected header + 2 packing rows, got %d", len(packing))
	}
	if packing[2][4] != "uk" || packing[2][5] != "50" {
		t.Errorf("unexpected packing row: %v", packing[2])
	}
}
