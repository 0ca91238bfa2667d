package store

import (
	"context"
	"fmt"
	"time"

	"songhound/internal/models"
)

// InsertPlay appends a play event. Plays are never deduplicated on write.
func (s *Store) InsertPlay(ctx context.Context, play models.PlaySong) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO play_songs (song_uuid, user_uuid, created_at)
		VALUES ($1, $2, $3)
	`, play.SongUUID, play.UserUUID, play.CreatedAt); err != nil {
		return fmt.Errorf("insert play: %w", err)
	}
	return nil
}

// PlayHistory returns one page of the distinct songs a user played, each with its
// most recent play time, most recent first.
func (s *Store) PlayHistory(ctx context.Context, userUUID string, page, limit int) ([]models.PlayedSong, error) {
	limit, offset := NormalizePage(page, limit)

	rows, err := s.db.QueryContext(ctx, `SELECT`+songColumns+`, p.last_played
		FROM (
			SELECT song_uuid, MAX(created_at) AS last_played
			FROM play_songs
			WHERE user_uuid = $1
			GROUP BY song_uuid
		) p
		JOIN songs s ON s.uuid = p.song_uuid
		ORDER BY p.last_played DESC
		LIMIT $2 OFFSET $3`, userUUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query play history: %w", err)
	}
	defer rows.Close()

	played := []models.PlayedSong{}
	for rows.Next() {
		var lastPlayed time.Time
		song, err := scanSong(rows, &lastPlayed)
		if err != nil {
			return nil, fmt.Errorf("scan played song: %w", err)
		}
		played = append(played, models.PlayedSong{Song: song, LastPlayed: lastPlayed})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate play history: %w", err)
	}
	return played, nil
}

// CountPlayedSongs returns how many distinct cataloged songs a user has played,
// matching the entries PlayHistory can page through.
func (s *Store) CountPlayedSongs(ctx context.Context, userUUID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT p.song_uuid)
		FROM play_songs p
		JOIN songs s ON s.uuid = p.song_uuid
		WHERE p.user_uuid = $1
	`, userUUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count played songs: %w", err)
	}
	return count, nil
}
