package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"songhound/internal/models"
)

// songColumns selects a song aliased as "s" with the storage defaults applied,
// so legacy rows with NULL columns still map onto models.Song.
const songColumns = `
		s.uuid, COALESCE(s.video_url, ''), COALESCE(s.audio_url, ''),
		COALESCE(s.image_url, ''), COALESCE(s.image_large_url, ''), COALESCE(s.llm_model, ''),
		COALESCE(s.tags, ''), COALESCE(s.lyrics, ''), COALESCE(s.description, ''),
		COALESCE(s.duration, 0), COALESCE(s.type, ''), COALESCE(s.user_uuid, ''),
		COALESCE(s.title, ''), COALESCE(s.play_count, 0), COALESCE(s.upvote_count, 0),
		s.created_at, COALESCE(s.status, ''), COALESCE(s.is_public, TRUE),
		COALESCE(s.is_trending, FALSE), COALESCE(s.provider, ''), COALESCE(s.artist, ''),
		COALESCE(s.prompt, '')`

// SongOrder selects the ranking used by a list view.
type SongOrder int

const (
	// OrderNewest ranks by creation time, newest first.
	OrderNewest SongOrder = iota
	// OrderPopular ranks by play count, then upvotes.
	OrderPopular
)

func (o SongOrder) clause() string {
	if o == OrderPopular {
		return " ORDER BY s.play_count DESC, s.upvote_count DESC"
	}
	return " ORDER BY s.created_at DESC"
}

// SongFilter defines criteria for catalog list views.
type SongFilter struct {
	Provider     string
	UserUUID     string
	RequireAudio bool
	Order        SongOrder
	Page         int
	Limit        int
}

// InsertSong catalogs a new song. A duplicate uuid yields ErrSongExists.
func (s *Store) InsertSong(ctx context.Context, song models.Song) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO songs (uuid, video_url, audio_url, image_url, image_large_url, llm_model,
			tags, lyrics, description, duration, type, user_uuid, title, play_count,
			upvote_count, created_at, status, is_public, is_trending, provider, artist, prompt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`, song.UUID, song.VideoURL, song.AudioURL, song.ImageURL, song.ImageLargeURL, song.LLMModel,
		song.Tags, song.Lyrics, song.Description, song.Duration, song.Type, song.UserUUID, song.Title,
		song.PlayCount, song.UpvoteCount, song.CreatedAt, song.Status, song.IsPublic, song.IsTrending,
		song.Provider, song.Artist, song.Prompt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSongExists
		}
		return fmt.Errorf("insert song: %w", err)
	}
	return nil
}

// UpdateSong overwrites every mutable column of an existing song.
func (s *Store) UpdateSong(ctx context.Context, song models.Song) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE songs
		SET video_url = $2, audio_url = $3, image_url = $4, image_large_url = $5, llm_model = $6,
			tags = $7, lyrics = $8, description = $9, duration = $10, type = $11, user_uuid = $12,
			title = $13, play_count = $14, upvote_count = $15, created_at = $16, status = $17,
			is_public = $18, is_trending = $19, provider = $20, artist = $21, prompt = $22
		WHERE uuid = $1
	`, song.UUID, song.VideoURL, song.AudioURL, song.ImageURL, song.ImageLargeURL, song.LLMModel,
		song.Tags, song.Lyrics, song.Description, song.Duration, song.Type, song.UserUUID, song.Title,
		song.PlayCount, song.UpvoteCount, song.CreatedAt, song.Status, song.IsPublic, song.IsTrending,
		song.Provider, song.Artist, song.Prompt)
	if err != nil {
		return fmt.Errorf("update song: %w", err)
	}
	return expectAffected(res, ErrSongNotFound)
}

// SongUUIDs returns the identifier of every cataloged song.
func (s *Store) SongUUIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT uuid FROM songs`)
	if err != nil {
		return nil, fmt.Errorf("select song uuids: %w", err)
	}
	defer rows.Close()

	var uuids []string
	for rows.Next() {
		var uuid string
		if err := rows.Scan(&uuid); err != nil {
			return nil, fmt.Errorf("scan song uuid: %w", err)
		}
		uuids = append(uuids, uuid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate song uuids: %w", err)
	}
	return uuids, nil
}

// CountSongs returns the total number of cataloged songs.
func (s *Store) CountSongs(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count songs: %w", err)
	}
	return count, nil
}

// SongByUUID returns a single stored song.
func (s *Store) SongByUUID(ctx context.Context, uuid string) (models.Song, error) {
	song, err := scanSong(s.db.QueryRowContext(ctx, `SELECT`+songColumns+`
		FROM songs s
		WHERE s.uuid = $1`, uuid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Song{}, ErrSongNotFound
		}
		return models.Song{}, fmt.Errorf("get song: %w", err)
	}
	return song, nil
}

// LatestSongs lists complete, playable songs newest first.
func (s *Store) LatestSongs(ctx context.Context, provider string, page, limit int) ([]models.Song, error) {
	return s.ListSongs(ctx, SongFilter{Provider: provider, RequireAudio: true, Order: OrderNewest, Page: page, Limit: limit})
}

// TrendingSongs lists complete, playable songs by popularity.
func (s *Store) TrendingSongs(ctx context.Context, provider string, page, limit int) ([]models.Song, error) {
	return s.ListSongs(ctx, SongFilter{Provider: provider, RequireAudio: true, Order: OrderPopular, Page: page, Limit: limit})
}

// UserSongs lists a user's complete songs newest first.
func (s *Store) UserSongs(ctx context.Context, userUUID string, page, limit int) ([]models.Song, error) {
	return s.ListSongs(ctx, SongFilter{UserUUID: userUUID, Order: OrderNewest, Page: page, Limit: limit})
}

// ListSongs returns one page of complete songs matching the filter.
func (s *Store) ListSongs(ctx context.Context, filter SongFilter) ([]models.Song, error) {
	query := `SELECT` + songColumns + `
		FROM songs s
		WHERE s.status = 'complete'`
	args := []any{}
	argIdx := 1

	if filter.RequireAudio {
		query += " AND s.audio_url <> ''"
	}

	if filter.Provider != "" {
		query += fmt.Sprintf(" AND s.provider = $%d", argIdx)
		args = append(args, filter.Provider)
		argIdx++
	}

	if filter.UserUUID != "" {
		query += fmt.Sprintf(" AND s.user_uuid = $%d", argIdx)
		args = append(args, filter.UserUUID)
		argIdx++
	}

	limit, offset := NormalizePage(filter.Page, filter.Limit)
	query += filter.Order.clause()
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	return collectSongs(rows)
}

// SongsByUUIDs fetches the listed songs newest first, skipping those whose stored
// status is one of excludeStatuses. Unknown identifiers are silently absent.
func (s *Store) SongsByUUIDs(ctx context.Context, uuids []string, excludeStatuses []string) ([]models.Song, error) {
	if len(uuids) == 0 {
		return []models.Song{}, nil
	}
	if excludeStatuses == nil {
		excludeStatuses = []string{}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT`+songColumns+`
		FROM songs s
		WHERE s.uuid = ANY($1) AND NOT (COALESCE(s.status, '') = ANY($2))
		ORDER BY s.created_at DESC`, pq.Array(uuids), pq.Array(excludeStatuses))
	if err != nil {
		return nil, fmt.Errorf("query songs by uuid: %w", err)
	}
	return collectSongs(rows)
}

// IncrementPlayCount atomically bumps the stored play counter.
func (s *Store) IncrementPlayCount(ctx context.Context, uuid string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE songs
		SET play_count = play_count + 1
		WHERE uuid = $1
	`, uuid)
	if err != nil {
		return fmt.Errorf("increment play count: %w", err)
	}
	return expectAffected(res, ErrSongNotFound)
}

func scanSong(row rowScanner, extra ...any) (models.Song, error) {
	var song models.Song
	dest := []any{
		&song.UUID, &song.VideoURL, &song.AudioURL,
		&song.ImageURL, &song.ImageLargeURL, &song.LLMModel,
		&song.Tags, &song.Lyrics, &song.Description,
		&song.Duration, &song.Type, &song.UserUUID,
		&song.Title, &song.PlayCount, &song.UpvoteCount,
		&song.CreatedAt, &song.Status, &song.IsPublic,
		&song.IsTrending, &song.Provider, &song.Artist,
		&song.Prompt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return models.Song{}, err
	}
	return song, nil
}

func collectSongs(rows *sql.Rows) ([]models.Song, error) {
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return songs, nil
}

func expectAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
