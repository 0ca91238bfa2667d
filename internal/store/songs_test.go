package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"songhound/internal/models"
)

var songColumnNames = []string{
	"uuid", "video_url", "audio_url", "image_url", "image_large_url", "llm_model",
	"tags", "lyrics", "description", "duration", "type", "user_uuid", "title",
	"play_count", "upvote_count", "created_at", "status", "is_public", "is_trending",
	"provider", "artist", "prompt",
}

func songRow(uuid, status string, created time.Time) []driver.Value {
	return []driver.Value{
		uuid, "", "https://cdn.example/" + uuid + ".mp3", "", "", "chirp-v3",
		"lofi", "la la", "calm", 120.5, "gen", "u-1", "Title " + uuid,
		int64(3), int64(1), created, status, true, false,
		"suno", "artist", "",
	}
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		wantLimit  int
		wantOffset int
	}{
		{name: "first page", page: 1, limit: 10, wantLimit: 10, wantOffset: 0},
		{name: "third page", page: 3, limit: 20, wantLimit: 20, wantOffset: 40},
		{name: "zero page treated as first", page: 0, limit: 5, wantLimit: 5, wantOffset: 0},
		{name: "default limit", page: 2, limit: 0, wantLimit: DefaultPageLimit, wantOffset: DefaultPageLimit},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			limit, offset := NormalizePage(tc.page, tc.limit)
			if limit != tc.wantLimit || offset != tc.wantOffset {
				t.Fatalf("NormalizePage(%d, %d) = (%d, %d), want (%d, %d)",
					tc.page, tc.limit, limit, offset, tc.wantLimit, tc.wantOffset)
			}
		})
	}
}

func TestInsertSongDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO songs (uuid, video_url`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := s.InsertSong(context.Background(), models.Song{UUID: "s-1"})
	if !errors.Is(err, ErrSongExists) {
		t.Fatalf("expected ErrSongExists, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertSongOtherErrorWrapped(t *testing.T) {
	s, mock := newMockStore(t)

	boom := errors.New("connection reset")
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO songs (uuid, video_url`)).
		WillReturnError(boom)

	err := s.InsertSong(context.Background(), models.Song{UUID: "s-1"})
	if !errors.Is(err, boom) || errors.Is(err, ErrSongExists) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}

func TestUpdateSongNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE songs`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateSong(context.Background(), models.Song{UUID: "missing"})
	if !errors.Is(err, ErrSongNotFound) {
		t.Fatalf("expected ErrSongNotFound, got %v", err)
	}
}

func TestSongByUUID(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE s.uuid = $1`)).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows(songColumnNames).AddRow(songRow("s-1", "complete", created)...))

	song, err := s.SongByUUID(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("SongByUUID error: %v", err)
	}
	if song.UUID != "s-1" || song.Duration != 120.5 || song.PlayCount != 3 || !song.CreatedAt.Equal(created) {
		t.Fatalf("unexpected song: %#v", song)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSongByUUIDNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE s.uuid = $1`)).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := s.SongByUUID(context.Background(), "nope")
	if !errors.Is(err, ErrSongNotFound) {
		t.Fatalf("expected ErrSongNotFound, got %v", err)
	}
}

func TestLatestSongsQuery(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(
		`WHERE s.status = 'complete' AND s.audio_url <> '' AND s.provider = $1 ORDER BY s.created_at DESC LIMIT $2 OFFSET $3`)).
		WithArgs("suno", 10, 10).
		WillReturnRows(sqlmock.NewRows(songColumnNames).
			AddRow(songRow("b", "complete", created)...).
			AddRow(songRow("a", "complete", created.Add(-time.Hour))...))

	songs, err := s.LatestSongs(context.Background(), "suno", 2, 10)
	if err != nil {
		t.Fatalf("LatestSongs error: %v", err)
	}
	if len(songs) != 2 || songs[0].UUID != "b" {
		t.Fatalf("unexpected songs: %#v", songs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTrendingSongsQuery(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`AND s.audio_url <> '' ORDER BY s.play_count DESC, s.upvote_count DESC LIMIT $1 OFFSET $2`)).
		WithArgs(DefaultPageLimit, 0).
		WillReturnRows(sqlmock.NewRows(songColumnNames))

	songs, err := s.TrendingSongs(context.Background(), "", 1, 0)
	if err != nil {
		t.Fatalf("TrendingSongs error: %v", err)
	}
	if songs == nil || len(songs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", songs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserSongsQuery(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`WHERE s.status = 'complete' AND s.user_uuid = $1 ORDER BY s.created_at DESC LIMIT $2 OFFSET $3`)).
		WithArgs("u-1", 5, 0).
		WillReturnRows(sqlmock.NewRows(songColumnNames).AddRow(songRow("x", "complete", time.Now())...))

	songs, err := s.UserSongs(context.Background(), "u-1", 1, 5)
	if err != nil {
		t.Fatalf("UserSongs error: %v", err)
	}
	if len(songs) != 1 {
		t.Fatalf("expected 1 song, got %d", len(songs))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSongsByUUIDsEmptySkipsQuery(t *testing.T) {
	s, mock := newMockStore(t)

	songs, err := s.SongsByUUIDs(context.Background(), nil, []string{"forbidden"})
	if err != nil {
		t.Fatalf("SongsByUUIDs error: %v", err)
	}
	if songs == nil || len(songs) != 0 {
		t.Fatalf("expected empty slice, got %#v", songs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected queries: %v", err)
	}
}

func TestSongsByUUIDs(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE s.uuid = ANY($1) AND NOT (COALESCE(s.status, '') = ANY($2))`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(songColumnNames).AddRow(songRow("a", "complete", time.Now())...))

	songs, err := s.SongsByUUIDs(context.Background(), []string{"a", "b"}, nil)
	if err != nil {
		t.Fatalf("SongsByUUIDs error: %v", err)
	}
	if len(songs) != 1 || songs[0].UUID != "a" {
		t.Fatalf("unexpected songs: %#v", songs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIncrementPlayCount(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "existing song", affected: 1},
		{name: "missing song", affected: 0, wantErr: ErrSongNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newMockStore(t)

			mock.ExpectExec(regexp.QuoteMeta(`SET play_count = play_count + 1`)).
				WithArgs("s-1").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			err := s.IncrementPlayCount(context.Background(), "s-1")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestSongUUIDsAndCount(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT uuid FROM songs`)).
		WillReturnRows(sqlmock.NewRows([]string{"uuid"}).AddRow("a").AddRow("b"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM songs`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	uuids, err := s.SongUUIDs(context.Background())
	if err != nil {
		t.Fatalf("SongUUIDs error: %v", err)
	}
	if len(uuids) != 2 {
		t.Fatalf("expected 2 uuids, got %v", uuids)
	}

	count, err := s.CountSongs(context.Background())
	if err != nil {
		t.Fatalf("CountSongs error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
