package reference

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MasterRecord is one row of master-config.csv.
type MasterRecord struct {
	ID          int     `json:"id"`
	Variety     string  `json:"variety"`
	Puc         string  `json:"puc"`
	Block       string  `json:"block"`
	Area        float64 `json:"area"`
	Description string  `json:"description,omitempty"`
}

// BlockExportRecord is one row of the TeamDesk block export.
type BlockExportRecord struct {
	BlockNo        string
	ID             string
	RowID          string
	ProductionUnit string
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	out := records[:0]
	for _, rec := range records {
		blank := true
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
			if rec[i] != "" {
				blank = false
			}
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out, nil
}

func headerIndex(header []string) func(names ...string) int {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = NormalizeKey(h)
	}
	return func(names ...string) int {
		for _, name := range names {
			for i, h := range normalized {
				if h == name {
					return i
				}
			}
		}
		return -1
	}
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

// ParseMasterConfig reads master-config.csv. A file without the id, variety,
// block and area columns yields no records; rows missing an id, variety or
// block, or with a non-numeric id, are skipped.
func ParseMasterConfig(r io.Reader) ([]MasterRecord, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	col := headerIndex(rows[0])
	idIdx, varietyIdx, blockIdx, areaIdx := col("id"), col("variety"), col("block"), col("area")
	if idIdx == -1 || varietyIdx == -1 || blockIdx == -1 || areaIdx == -1 {
		return nil, nil
	}
	pucIdx, descIdx := col("puc"), col("description")

	var records []MasterRecord
	for _, rec := range rows[1:] {
		idCell, variety, block := cell(rec, idIdx), cell(rec, varietyIdx), cell(rec, blockIdx)
		if idCell == "" || variety == "" || block == "" {
			continue
		}
		id, ok := parseLeadingInt(idCell)
		if !ok {
			continue
		}
		area, err := strconv.ParseFloat(cell(rec, areaIdx), 64)
		if err != nil {
			area = 0
		}
		records = append(records, MasterRecord{
			ID:          id,
			Variety:     variety,
			Puc:         cell(rec, pucIdx),
			Block:       block,
			Area:        area,
			Description: cell(rec, descIdx),
		})
	}
	return records, nil
}

// ParseBlockExport reads the TeamDesk block export. The "Block No" column is
// required; Id, @row.id and the production unit column are optional.
func ParseBlockExport(r io.Reader) ([]BlockExportRecord, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	col := headerIndex(rows[0])
	blockIdx := col("block no")
	if blockIdx == -1 {
		return nil, nil
	}
	idIdx, rowIdx := col("id"), col("@row.id")
	puIdx := col("production unit name", "production unit", "puc")

	var records []BlockExportRecord
	for _, rec := range rows[1:] {
		blockNo := cell(rec, blockIdx)
		if blockNo == "" {
			continue
		}
		records = append(records, BlockExportRecord{
			BlockNo:        blockNo,
			ID:             cell(rec, idIdx),
			RowID:          cell(rec, rowIdx),
			ProductionUnit: cell(rec, puIdx),
		})
	}
	return records, nil
}

// parseLeadingInt parses an optional sign followed by leading digits,
// ignoring anything after them ("12a" is 12).
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
