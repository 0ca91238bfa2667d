package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"songhound/internal/models"
)

// UpsertFavorite creates the (song, user) favorite row or updates its status in place.
// The conflict target keeps exactly one row per pair even under concurrent toggles.
func (s *Store) UpsertFavorite(ctx context.Context, fav models.FavoriteSong) (models.FavoriteSong, error) {
	var saved models.FavoriteSong
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO favorite_songs (song_uuid, user_uuid, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (song_uuid, user_uuid)
		DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
		RETURNING song_uuid, user_uuid, status, created_at, updated_at
	`, fav.SongUUID, fav.UserUUID, fav.Status, fav.CreatedAt, fav.UpdatedAt).Scan(
		&saved.SongUUID, &saved.UserUUID, &saved.Status, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return models.FavoriteSong{}, fmt.Errorf("upsert favorite: %w", err)
	}
	return saved, nil
}

// FavoriteByKey returns the favorite row for a (song, user) pair.
func (s *Store) FavoriteByKey(ctx context.Context, songUUID, userUUID string) (models.FavoriteSong, error) {
	var fav models.FavoriteSong
	err := s.db.QueryRowContext(ctx, `
		SELECT song_uuid, user_uuid, status, created_at, updated_at
		FROM favorite_songs
		WHERE song_uuid = $1 AND user_uuid = $2
	`, songUUID, userUUID).Scan(&fav.SongUUID, &fav.UserUUID, &fav.Status, &fav.CreatedAt, &fav.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FavoriteSong{}, ErrFavoriteNotFound
		}
		return models.FavoriteSong{}, fmt.Errorf("get favorite: %w", err)
	}
	return fav, nil
}

// FavoriteSongsByUser lists songs the user currently favorites, most widely
// favorited first.
func (s *Store) FavoriteSongsByUser(ctx context.Context, userUUID string, page, limit int) ([]models.Song, error) {
	limit, offset := NormalizePage(page, limit)

	rows, err := s.db.QueryContext(ctx, `SELECT`+songColumns+`
		FROM songs s
		JOIN favorite_songs f ON f.song_uuid = s.uuid
		WHERE f.user_uuid = $1 AND f.status = 'on'
		ORDER BY (
			SELECT COUNT(*) FROM favorite_songs c
			WHERE c.song_uuid = s.uuid AND c.status = 'on'
		) DESC, s.created_at DESC
		LIMIT $2 OFFSET $3`, userUUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query favorite songs: %w", err)
	}
	return collectSongs(rows)
}
