package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"songhound/internal/app/ingest"
	"songhound/internal/config"
	"songhound/internal/feed"
	"songhound/internal/store"
)

var (
	syncSource   string
	syncPage     int
	syncProvider string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy one page of the provider feed into the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		src, trending, err := feedSource(cfg, syncSource)
		if err != nil {
			return err
		}

		provider := syncProvider
		if provider == "" {
			provider = cfg.Feed.Provider
		}

		db, err := openDatabase(cmd.Context(), cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := ingest.New(store.New(db), logger.With().Str("component", "ingest").Logger())
		result, err := svc.SyncFrom(cmd.Context(), src, syncPage, ingest.Options{Trending: trending, Provider: provider})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncSource, "source", "latest", "feed to read: latest, trending or file")
	syncCmd.Flags().IntVar(&syncPage, "page", 1, "feed page to fetch")
	syncCmd.Flags().StringVar(&syncProvider, "provider", "", "provider recorded on new songs (defaults to FEED_PROVIDER)")
}

// feedSource resolves the --source flag; the bool reports whether songs from
// it are marked trending.
func feedSource(cfg *config.Config, name string) (feed.Source, bool, error) {
	switch name {
	case "latest":
		if cfg.Feed.LatestURL == "" {
			return nil, false, fmt.Errorf("FEED_LATEST_URL is required for --source latest")
		}
		return feed.NewClient("latest", cfg.Feed.LatestURL, cfg.Feed.RateLimit), false, nil
	case "trending":
		if cfg.Feed.TrendingURL == "" {
			return nil, false, fmt.Errorf("FEED_TRENDING_URL is required for --source trending")
		}
		return feed.NewClient("trending", cfg.Feed.TrendingURL, cfg.Feed.RateLimit), true, nil
	case "file":
		return feed.NewFileSource(cfg.Feed.SongsFile), false, nil
	default:
		return nil, false, fmt.Errorf("unknown source %q (want latest, trending or file)", name)
	}
}
