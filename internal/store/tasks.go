package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"songhound/internal/models"
)

const taskColumns = `
		uuid, COALESCE(user_uuid, ''), created_at, updated_at, COALESCE(status, ''),
		COALESCE(description, ''), COALESCE(title, ''), COALESCE(lyrics, ''), COALESCE(tags, ''),
		COALESCE(is_no_lyrics, FALSE), COALESCE(lyrics_provider, ''), COALESCE(lyrics_uuid, ''),
		COALESCE(song_provider, ''), COALESCE(song_model, ''), COALESCE(song_uuids, '[]')`

// InsertTask records a newly submitted task. A duplicate uuid yields ErrTaskExists.
func (s *Store) InsertTask(ctx context.Context, task models.SongTask) error {
	songUUIDs, err := encodeSongUUIDs(task.SongUUIDs)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO song_tasks (uuid, user_uuid, created_at, updated_at, status, description, title,
			lyrics, tags, is_no_lyrics, lyrics_provider, lyrics_uuid, song_provider, song_model, song_uuids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, task.UUID, task.UserUUID, task.CreatedAt, task.UpdatedAt, string(task.Status), task.Description,
		task.Title, task.Lyrics, task.Tags, task.IsNoLyrics, task.LyricsProvider, task.LyricsUUID,
		task.SongProvider, task.SongModel, songUUIDs)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTaskExists
		}
		return fmt.Errorf("insert song task: %w", err)
	}
	return nil
}

// UpdateTask overwrites every mutable field of a task in one statement, provided its
// stored status is one of allowedFrom. When nothing is updated the cause is reported
// as ErrTaskNotFound or ErrInvalidTransition.
func (s *Store) UpdateTask(ctx context.Context, task models.SongTask, allowedFrom []models.TaskStatus) error {
	songUUIDs, err := encodeSongUUIDs(task.SongUUIDs)
	if err != nil {
		return err
	}

	from := make([]string, 0, len(allowedFrom))
	for _, status := range allowedFrom {
		from = append(from, string(status))
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE song_tasks
		SET user_uuid = $2, created_at = $3, updated_at = $4, status = $5, description = $6, title = $7,
			lyrics = $8, tags = $9, is_no_lyrics = $10, lyrics_provider = $11, lyrics_uuid = $12,
			song_provider = $13, song_model = $14, song_uuids = $15
		WHERE uuid = $1 AND status = ANY($16)
	`, task.UUID, task.UserUUID, task.CreatedAt, task.UpdatedAt, string(task.Status), task.Description,
		task.Title, task.Lyrics, task.Tags, task.IsNoLyrics, task.LyricsProvider, task.LyricsUUID,
		task.SongProvider, task.SongModel, songUUIDs, pq.Array(from))
	if err != nil {
		return fmt.Errorf("update song task: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM song_tasks WHERE uuid = $1)
	`, task.UUID).Scan(&exists); err != nil {
		return fmt.Errorf("check song task: %w", err)
	}
	if !exists {
		return ErrTaskNotFound
	}
	return ErrInvalidTransition
}

// TaskByUUID returns a single task.
func (s *Store) TaskByUUID(ctx context.Context, uuid string) (models.SongTask, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, `SELECT`+taskColumns+`
		FROM song_tasks
		WHERE uuid = $1`, uuid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SongTask{}, ErrTaskNotFound
		}
		return models.SongTask{}, fmt.Errorf("get song task: %w", err)
	}
	return task, nil
}

// TasksByUser lists one page of a user's tasks, newest first.
func (s *Store) TasksByUser(ctx context.Context, userUUID string, page, limit int) ([]models.SongTask, error) {
	limit, offset := NormalizePage(page, limit)

	rows, err := s.db.QueryContext(ctx, `SELECT`+taskColumns+`
		FROM song_tasks
		WHERE user_uuid = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userUUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query song tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.SongTask{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate song tasks: %w", err)
	}
	return tasks, nil
}

// CountTasksByUser returns how many tasks a user has submitted.
func (s *Store) CountTasksByUser(ctx context.Context, userUUID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM song_tasks
		WHERE user_uuid = $1
	`, userUUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count song tasks: %w", err)
	}
	return count, nil
}

func scanTask(row rowScanner) (models.SongTask, error) {
	var (
		task      models.SongTask
		status    string
		songUUIDs string
	)
	if err := row.Scan(
		&task.UUID, &task.UserUUID, &task.CreatedAt, &task.UpdatedAt, &status,
		&task.Description, &task.Title, &task.Lyrics, &task.Tags,
		&task.IsNoLyrics, &task.LyricsProvider, &task.LyricsUUID,
		&task.SongProvider, &task.SongModel, &songUUIDs,
	); err != nil {
		return models.SongTask{}, err
	}
	task.Status = models.TaskStatus(status)

	uuids, err := decodeSongUUIDs(songUUIDs)
	if err != nil {
		return models.SongTask{}, err
	}
	task.SongUUIDs = uuids
	return task, nil
}

func encodeSongUUIDs(uuids []string) (string, error) {
	if uuids == nil {
		uuids = []string{}
	}
	b, err := json.Marshal(uuids)
	if err != nil {
		return "", fmt.Errorf("encode song uuids: %w", err)
	}
	return string(b), nil
}

func decodeSongUUIDs(raw string) ([]string, error) {
	uuids := []string{}
	if raw == "" {
		return uuids, nil
	}
	if err := json.Unmarshal([]byte(raw), &uuids); err != nil {
		return nil, fmt.Errorf("decode song uuids: %w", err)
	}
	if uuids == nil {
		uuids = []string{}
	}
	return uuids, nil
}
