// Package ingest copies provider feed items into the catalog without ever
// overwriting songs that are already stored.
package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"songhound/internal/feed"
	"songhound/internal/models"
)

// Store defines persistence operations required for ingestion.
type Store interface {
	SongUUIDs(ctx context.Context) ([]string, error)
	InsertSong(ctx context.Context, song models.Song) error
}

// Options describe how a batch is cataloged.
type Options struct {
	Trending bool
	Provider string
}

// Result summarizes a sync run.
type Result struct {
	AllCount    int `json:"all_count"`
	ExistCount  int `json:"exist_count"`
	NewCount    int `json:"new_count"`
	FailedCount int `json:"failed_count"`
}

// Service runs sync batches.
type Service interface {
	Sync(ctx context.Context, items []feed.Item, opts Options) (Result, error)
	SyncFrom(ctx context.Context, src feed.Source, page int, opts Options) (Result, error)
}

type service struct {
	store  Store
	logger zerolog.Logger
}

// New constructs an ingestion Service backed by the given store.
func New(st Store, logger zerolog.Logger) Service {
	return &service{store: st, logger: logger}
}

// Sync inserts every item whose id is not cataloged yet. Per-item failures are
// counted and logged; only failing to read the existing ids aborts the run.
func (s *service) Sync(ctx context.Context, items []feed.Item, opts Options) (Result, error) {
	result := Result{AllCount: len(items)}

	existing, err := s.store.SongUUIDs(ctx)
	if err != nil {
		return result, fmt.Errorf("load existing songs: %w", err)
	}

	known := make(map[string]struct{}, len(existing)+len(items))
	for _, uuid := range existing {
		known[uuid] = struct{}{}
	}

	for i, item := range items {
		if item.DecodeErr != nil {
			result.FailedCount++
			s.logger.Error().Err(item.DecodeErr).
				Str("song_uuid", item.ID).
				Int("index", i).
				Msg("skip undecodable clip")
			continue
		}
		if item.ID == "" {
			continue
		}
		if _, ok := known[item.ID]; ok {
			result.ExistCount++
			continue
		}

		song := item.ToSong(opts.Trending, opts.Provider)
		if err := s.store.InsertSong(ctx, song); err != nil {
			result.FailedCount++
			s.logger.Error().Err(err).
				Str("song_uuid", song.UUID).
				Str("audio_url", song.AudioURL).
				Int("index", i).
				Msg("insert song failed")
			continue
		}
		result.NewCount++
		known[item.ID] = struct{}{}
	}

	s.logger.Info().
		Int("all_count", result.AllCount).
		Int("exist_count", result.ExistCount).
		Int("new_count", result.NewCount).
		Int("failed_count", result.FailedCount).
		Bool("trending", opts.Trending).
		Str("provider", opts.Provider).
		Msg("sync finished")

	return result, nil
}

// SyncFrom fetches one page from src and syncs it.
func (s *service) SyncFrom(ctx context.Context, src feed.Source, page int, opts Options) (Result, error) {
	items, err := src.Fetch(ctx, page)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s page %d: %w", src.Name(), page, err)
	}
	s.logger.Debug().Str("source", src.Name()).Int("page", page).Int("items", len(items)).Msg("fetched feed page")
	return s.Sync(ctx, items, opts)
}
