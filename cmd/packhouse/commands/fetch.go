package commands

import (
	"time"

	"packhouse-temporal/internal/teamdesk"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var fetchOut string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Dump every TeamDesk palletizing row to a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		rows, err := teamdesk.NewClient(cfg.TeamDesk).FetchAll(cmd.Context())
		if err != nil {
			return err
		}
		if err := teamdesk.WriteRowsFile(fetchOut, rows); err != nil {
			return err
		}
		log.Info().
			Int("rows", len(rows)).
			Str("path", fetchOut).
			Dur("elapsed", time.Since(start)).
			Msg("Fetched TeamDesk rows")
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchOut, "out", "rows.json", "output file")
	rootCmd.AddCommand(fetchCmd)
}
