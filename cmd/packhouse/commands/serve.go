package commands

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"packhouse-temporal/internal/api"
	"packhouse-temporal/internal/metrics"
	"packhouse-temporal/internal/reference"
	"packhouse-temporal/internal/teamdesk"
	"packhouse-temporal/internal/temporal"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	openBrowser bool
	openClient  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		m := metrics.New()
		loader := reference.NewLoader(cfg.DataDir)
		fetcher := teamdesk.NewClient(cfg.TeamDesk, teamdesk.WithObserver(m))
		store := temporal.NewMemoryStore[temporal.Snapshot](m, nil)
		records := temporal.NewService(fetcher, loader, store, cfg.CacheTTL, temporal.WithRefreshObserver(m))

		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           api.NewServer(records, loader, m).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().
				Str("addr", cfg.Addr).
				Str("dataDir", cfg.DataDir).
				Dur("cacheTTL", cfg.CacheTTL).
				Msg("HTTP server listening")
			errCh <- srv.ListenAndServe()
		}()

		if openBrowser {
			target := landingURL(cfg.Addr, openClient, cfg.DataDir)
			if err := browser.OpenURL(target); err != nil {
				log.Warn().Err(err).Str("url", target).Msg("Failed to open browser")
			}
		}

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// landingURL points at the temporal records of client, or of the first
// tenant directory under dataDir. Without any tenant it falls back to /metrics.
func landingURL(addr, client, dataDir string) string {
	base := localURL(addr)
	if client == "" {
		client = firstTenant(dataDir)
	}
	if client == "" {
		return base + "/metrics"
	}
	return base + "/api/packhouse/temporal?client=" + url.QueryEscape(client)
}

func firstTenant(dataDir string) string {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") && reference.ValidateSlug(e.Name()) == nil {
			return e.Name()
		}
	}
	return ""
}

func init() {
	serveCmd.Flags().BoolVar(&openBrowser, "open", false, "open the temporal records in a browser once listening")
	serveCmd.Flags().StringVar(&openClient, "client", "", "client slug opened by --open (defaults to the first tenant in the data dir)")
	rootCmd.AddCommand(serveCmd)
}
