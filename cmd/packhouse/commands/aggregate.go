package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"packhouse-temporal/internal/export"
	"packhouse-temporal/internal/packhouse"
	"packhouse-temporal/internal/reference"
	"packhouse-temporal/internal/teamdesk"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	aggClient  string
	aggRows    string
	aggOut     string
	aggXLSX    string
	aggDataDir string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate a saved rows file offline",
	RunE: func(cmd *cobra.Command, args []string) error {
		if aggClient == "" || aggRows == "" {
			return errors.New("--client and --rows are required")
		}
		dataDir := aggDataDir
		if dataDir == "" {
			dataDir = cfg.DataDir
		}

		rc, err := reference.NewLoader(dataDir).Load(aggClient)
		if err != nil {
			return err
		}
		rows, err := teamdesk.LoadRowsFile(aggRows)
		if err != nil {
			return err
		}

		records := packhouse.Aggregate(rows, rc)
		log.Info().
			Str("client", aggClient).
			Int("rows", len(rows)).
			Int("records", len(records)).
			Msg("Aggregated rows file")

		if err := writeRecordsJSON(aggOut, records); err != nil {
			return err
		}
		if aggXLSX != "" {
			if err := writeRecordsXLSX(aggXLSX, records); err != nil {
				return err
			}
			log.Info().Str("path", aggXLSX).Msg("Wrote workbook")
		}
		return nil
	},
}

func writeRecordsJSON(path string, records []packhouse.Record) error {
	if records == nil {
		records = []packhouse.Record{}
	}
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeRecordsXLSX(path string, records []packhouse.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.WriteRecords(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	aggregateCmd.Flags().StringVar(&aggClient, "client", "", "client slug")
	aggregateCmd.Flags().StringVar(&aggRows, "rows", "", "JSON rows file written by fetch or mockgen")
	aggregateCmd.Flags().StringVar(&aggOut, "out", "", "write records JSON here instead of stdout")
	aggregateCmd.Flags().StringVar(&aggXLSX, "xlsx", "", "also write an Excel workbook")
	aggregateCmd.Flags().StringVar(&aggDataDir, "data-dir", "", "reference data root (defaults to PACKHOUSE_DATA_DIR)")
	rootCmd.AddCommand(aggregateCmd)
}
