package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultPageLimit is used whenever a caller asks for a non-positive page size.
const DefaultPageLimit = 50

var (
	// ErrSongExists signals a song with the same uuid is already cataloged.
	ErrSongExists = errors.New("song already exists")
	// ErrSongNotFound signals a missing song record.
	ErrSongNotFound = errors.New("song not found")
	// ErrTaskExists signals a task with the same uuid was already submitted.
	ErrTaskExists = errors.New("song task already exists")
	// ErrTaskNotFound signals a missing task record.
	ErrTaskNotFound = errors.New("song task not found")
	// ErrInvalidTransition indicates the stored task status does not allow the update.
	ErrInvalidTransition = errors.New("invalid song task status transition")
	// ErrFavoriteNotFound signals no favorite row exists for the (song, user) pair.
	ErrFavoriteNotFound = errors.New("favorite not found")
)

// Store provides catalog persistence backed by Postgres.
// The underlying *sql.DB pool is safe for concurrent use and owned by the caller.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// NormalizePage coerces page/limit into a usable LIMIT and OFFSET pair.
// Pages start at 1; a non-positive limit falls back to DefaultPageLimit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return limit, (page - 1) * limit
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}
