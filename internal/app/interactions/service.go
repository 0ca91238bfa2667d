// Package interactions records per-user plays and favorites.
package interactions

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"songhound/internal/logging"
	"songhound/internal/models"
	"songhound/internal/store"
)

// ErrInvalidFavoriteStatus rejects a favorite status other than on/off.
var ErrInvalidFavoriteStatus = errors.New("favorite status must be on or off")

// Store defines persistence operations required for interaction workflows.
type Store interface {
	InsertPlay(ctx context.Context, play models.PlaySong) error
	PlayHistory(ctx context.Context, userUUID string, page, limit int) ([]models.PlayedSong, error)
	CountPlayedSongs(ctx context.Context, userUUID string) (int, error)
	UpsertFavorite(ctx context.Context, fav models.FavoriteSong) (models.FavoriteSong, error)
	FavoriteByKey(ctx context.Context, songUUID, userUUID string) (models.FavoriteSong, error)
	FavoriteSongsByUser(ctx context.Context, userUUID string, page, limit int) ([]models.Song, error)
}

// Moderator produces the served view of a stored song.
type Moderator interface {
	Apply(song models.Song) models.Song
}

// Service describes interaction operations used by HTTP handlers.
type Service interface {
	RecordPlay(ctx context.Context, songUUID, userUUID string, at time.Time) error
	PlayHistory(ctx context.Context, userUUID string, page, limit int) models.PlayHistory
	SetFavorite(ctx context.Context, songUUID, userUUID, status string) (models.FavoriteSong, error)
	Favorite(ctx context.Context, songUUID, userUUID string) (models.FavoriteSong, bool, error)
	UserFavorites(ctx context.Context, userUUID string, page, limit int) ([]models.Song, error)
}

type service struct {
	store     Store
	moderator Moderator
	logger    zerolog.Logger
	now       func() time.Time
}

// New constructs an interactions Service backed by the given store.
func New(st Store, moderator Moderator, logger zerolog.Logger) Service {
	return &service{
		store:     st,
		moderator: moderator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) RecordPlay(ctx context.Context, songUUID, userUUID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if at.IsZero() {
		at = s.now()
	}
	return s.store.InsertPlay(ctx, models.PlaySong{SongUUID: songUUID, UserUUID: userUUID, CreatedAt: at})
}

// PlayHistory returns one entry per distinct played song, most recently played
// first. Store failures are logged and yield an empty history.
func (s *service) PlayHistory(ctx context.Context, userUUID string, page, limit int) models.PlayHistory {
	history := models.PlayHistory{Songs: []models.PlayedSong{}}

	logger := logging.WithContext(ctx, s.logger)

	played, err := s.store.PlayHistory(ctx, userUUID, page, limit)
	if err != nil {
		logger.Warn().Err(err).Str("user_uuid", userUUID).Msg("degraded: play history unavailable")
		return history
	}
	total, err := s.store.CountPlayedSongs(ctx, userUUID)
	if err != nil {
		logger.Warn().Err(err).Str("user_uuid", userUUID).Msg("degraded: play count unavailable")
		return history
	}

	for _, entry := range played {
		entry.Song = s.moderator.Apply(entry.Song)
		history.Songs = append(history.Songs, entry)
	}
	history.TotalCount = total
	return history
}

func (s *service) SetFavorite(ctx context.Context, songUUID, userUUID, status string) (models.FavoriteSong, error) {
	if status != models.FavoriteOn && status != models.FavoriteOff {
		return models.FavoriteSong{}, ErrInvalidFavoriteStatus
	}
	if err := ctx.Err(); err != nil {
		return models.FavoriteSong{}, err
	}

	now := s.now()
	return s.store.UpsertFavorite(ctx, models.FavoriteSong{
		SongUUID:  songUUID,
		UserUUID:  userUUID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *service) Favorite(ctx context.Context, songUUID, userUUID string) (models.FavoriteSong, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.FavoriteSong{}, false, err
	}

	fav, err := s.store.FavoriteByKey(ctx, songUUID, userUUID)
	if err != nil {
		if errors.Is(err, store.ErrFavoriteNotFound) {
			return models.FavoriteSong{}, false, nil
		}
		return models.FavoriteSong{}, false, err
	}
	return fav, true, nil
}

// UserFavorites lists the user's favorited songs, most widely favorited first.
// Songs served as forbidden are left out.
func (s *service) UserFavorites(ctx context.Context, userUUID string, page, limit int) ([]models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored, err := s.store.FavoriteSongsByUser(ctx, userUUID, page, limit)
	if err != nil {
		return nil, err
	}

	songs := make([]models.Song, 0, len(stored))
	for _, song := range stored {
		served := s.moderator.Apply(song)
		if served.Status == models.SongStatusForbidden {
			continue
		}
		songs = append(songs, served)
	}
	return songs, nil
}
