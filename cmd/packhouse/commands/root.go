package commands

import (
	"io"

	"packhouse-temporal/internal/config"
	"packhouse-temporal/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
	logSink io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "packhouse",
	Short: "Packhouse temporal aggregation service",
	Long: `Fetches palletizing rows from TeamDesk, resolves them against per-client reference
files and serves daily packhouse aggregates over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logSink, err = logging.Init(logging.Options{Verbose: verbose})
		if err != nil {
			return err
		}

		cfg, err = config.Load()
		if err != nil {
			log.Error().Err(err).Msg("Failed to load configuration")
			return err
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("command", cmd.Name()).
			Msg("Packhouse starting")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logSink != nil {
			_ = logSink.Close()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
