package teamdesk

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadRowsFile reads a JSON array of rows previously written by WriteRowsFile
// or exported from TeamDesk.
func LoadRowsFile(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows file: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return nil, fmt.Errorf("rows file %s: %w", path, err)
	}
	return rows, nil
}

// WriteRowsFile writes rows as an indented JSON array, via a temp file so a
// failed write never leaves a truncated file behind.
func WriteRowsFile(path string, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write rows file: %w", err)
	}
	return os.Rename(tmpPath, path)
}
