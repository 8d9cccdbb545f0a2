package export

import (
	"fmt"
	"io"

	"packhouse-temporal/internal/packhouse"

	"github.com/xuri/excelize/v2"
)

const (
	RecordsSheet = "Records"
	PackingSheet = "Packing"
)

var (
	recordsHeader = []any{
		"Variety", "Season", "Block", "Date", "PUC", "Tons Tipped", "Ctn Weight",
		"Bins Tipped", "Class I", "Class II", "Class III", "Pack %",
	}
	packingHeader = []any{"Date", "Variety", "Season", "Block", "Key", "Value"}
)

// WriteRecords renders records as a workbook with one row per record on the
// Records sheet and one row per packing-progress entry on the Packing sheet.
func WriteRecords(w io.Writer, records []packhouse.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return fmt.Errorf("failed to name records sheet: %w", err)
	}
	if _, err := f.NewSheet(PackingSheet); err != nil {
		return fmt.Errorf("failed to create packing sheet: %w", err)
	}

	if err := writeRow(f, RecordsSheet, 1, recordsHeader); err != nil {
		return err
	}
	if err := writeRow(f, PackingSheet, 1, packingHeader); err != nil {
		return err
	}

	packingRow := 2
	for i, r := range records {
		row := []any{
			r.Variety, r.Season, r.Block, r.Date, r.Puc, r.TonsTipped, r.CtnWeight,
			r.BinsTipped, r.ClassI, r.ClassII, r.ClassIII, r.PackPercentage,
		}
		if err := writeRow(f, RecordsSheet, i+2, row); err != nil {
			return err
		}

		for _, m := range r.PackingProgress {
			entry := []any{r.Date, r.Variety, r.Season, r.Block, m.Key, m.Value}
			if err := writeRow(f, PackingSheet, packingRow, entry); err != nil {
				return err
			}
			packingRow++
		}
	}

	for _, sheet := range []string{RecordsSheet, PackingSheet} {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze header on %s: %w", sheet, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
