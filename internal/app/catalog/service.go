// Package catalog serves the ranked and paginated views of the song catalog.
package catalog

import (
	"context"
	"math/rand"

	"songhound/internal/models"
)

// Store defines persistence operations required for catalog views.
type Store interface {
	LatestSongs(ctx context.Context, provider string, page, limit int) ([]models.Song, error)
	TrendingSongs(ctx context.Context, provider string, page, limit int) ([]models.Song, error)
	UserSongs(ctx context.Context, userUUID string, page, limit int) ([]models.Song, error)
	SongByUUID(ctx context.Context, uuid string) (models.Song, error)
	CountSongs(ctx context.Context) (int, error)
	IncrementPlayCount(ctx context.Context, uuid string) error
	UpdateSong(ctx context.Context, song models.Song) error
}

// Moderator produces the served view of a stored song.
type Moderator interface {
	Apply(song models.Song) models.Song
}

// Service describes catalog operations used by HTTP handlers.
type Service interface {
	Latest(ctx context.Context, provider string, page, limit int) ([]models.Song, error)
	Trending(ctx context.Context, provider string, page, limit int) ([]models.Song, error)
	Random(ctx context.Context, provider string, page, limit int) ([]models.Song, error)
	ByUser(ctx context.Context, userUUID string, page, limit int) ([]models.Song, error)
	Song(ctx context.Context, uuid string) (models.Song, error)
	Count(ctx context.Context) (int, error)
	IncrementPlayCount(ctx context.Context, uuid string) error
	UpdateSong(ctx context.Context, song models.Song) error
}

type service struct {
	store     Store
	moderator Moderator
	shuffle   func(n int, swap func(i, j int))
}

// New constructs a catalog Service backed by the given store.
func New(st Store, moderator Moderator) Service {
	return &service{store: st, moderator: moderator, shuffle: rand.Shuffle}
}

func (s *service) Latest(ctx context.Context, provider string, page, limit int) ([]models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	songs, err := s.store.LatestSongs(ctx, provider, page, limit)
	if err != nil {
		return nil, err
	}
	return s.served(songs), nil
}

func (s *service) Trending(ctx context.Context, provider string, page, limit int) ([]models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	songs, err := s.store.TrendingSongs(ctx, provider, page, limit)
	if err != nil {
		return nil, err
	}
	return s.served(songs), nil
}

// Random returns the Latest page in a uniformly shuffled order. The shuffle is
// local to the page.
func (s *service) Random(ctx context.Context, provider string, page, limit int) ([]models.Song, error) {
	songs, err := s.Latest(ctx, provider, page, limit)
	if err != nil {
		return nil, err
	}
	s.shuffle(len(songs), func(i, j int) {
		songs[i], songs[j] = songs[j], songs[i]
	})
	return songs, nil
}

func (s *service) ByUser(ctx context.Context, userUUID string, page, limit int) ([]models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	songs, err := s.store.UserSongs(ctx, userUUID, page, limit)
	if err != nil {
		return nil, err
	}
	return s.served(songs), nil
}

// Song returns a single song in its served view. Unlike list views, a song
// served as forbidden is still returned.
func (s *service) Song(ctx context.Context, uuid string) (models.Song, error) {
	if err := ctx.Err(); err != nil {
		return models.Song{}, err
	}
	song, err := s.store.SongByUUID(ctx, uuid)
	if err != nil {
		return models.Song{}, err
	}
	return s.moderator.Apply(song), nil
}

func (s *service) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.store.CountSongs(ctx)
}

func (s *service) IncrementPlayCount(ctx context.Context, uuid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.IncrementPlayCount(ctx, uuid)
}

func (s *service) UpdateSong(ctx context.Context, song models.Song) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.UpdateSong(ctx, song)
}

func (s *service) served(stored []models.Song) []models.Song {
	songs := make([]models.Song, 0, len(stored))
	for _, song := range stored {
		song = s.moderator.Apply(song)
		if song.Status == models.SongStatusForbidden {
			continue
		}
		songs = append(songs, song)
	}
	return songs
}
