// Package tasks tracks song generation requests through their lifecycle.
package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"songhound/internal/logging"
	"songhound/internal/models"
)

var (
	// ErrMissingUUID rejects a task without an identifier.
	ErrMissingUUID = errors.New("song task uuid is required")
	// ErrInvalidStatus rejects an unknown or disallowed task status.
	ErrInvalidStatus = errors.New("invalid song task status")
)

// allowedFrom lists, per valid target status, the stored statuses it may be
// reached from. Terminal statuses never appear as a source.
var allowedFrom = map[models.TaskStatus][]models.TaskStatus{
	models.TaskSubmitted:  {models.TaskSubmitted},
	models.TaskGenerating: {models.TaskSubmitted, models.TaskGenerating},
	models.TaskComplete:   {models.TaskGenerating},
	models.TaskFailed:     {models.TaskSubmitted, models.TaskGenerating},
}

// Store defines persistence operations required for task workflows.
type Store interface {
	InsertTask(ctx context.Context, task models.SongTask) error
	UpdateTask(ctx context.Context, task models.SongTask, allowedFrom []models.TaskStatus) error
	TaskByUUID(ctx context.Context, uuid string) (models.SongTask, error)
	TasksByUser(ctx context.Context, userUUID string, page, limit int) ([]models.SongTask, error)
	CountTasksByUser(ctx context.Context, userUUID string) (int, error)
	SongsByUUIDs(ctx context.Context, uuids []string, excludeStatuses []string) ([]models.Song, error)
}

// Moderator produces the served view of stored songs.
type Moderator interface {
	ApplyAll(songs []models.Song) []models.Song
}

// Service describes task operations used by HTTP handlers.
type Service interface {
	Create(ctx context.Context, task models.SongTask) (models.SongTask, error)
	UpdateStatus(ctx context.Context, task models.SongTask) (models.SongTask, error)
	Get(ctx context.Context, uuid string) (models.SongTask, error)
	ListForUser(ctx context.Context, userUUID string, page, limit int) ([]models.SongTask, error)
	CountForUser(ctx context.Context, userUUID string) (int, error)
	CreatedSongsForUser(ctx context.Context, userUUID string, page, limit int) []models.Song
}

type service struct {
	store     Store
	moderator Moderator
	logger    zerolog.Logger
	now       func() time.Time
}

// New constructs a task Service backed by the given store.
func New(st Store, moderator Moderator, logger zerolog.Logger) Service {
	return &service{
		store:     st,
		moderator: moderator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, task models.SongTask) (models.SongTask, error) {
	if task.UUID == "" {
		return models.SongTask{}, ErrMissingUUID
	}
	if task.Status == "" || task.Status == models.TaskPending {
		task.Status = models.TaskSubmitted
	}
	if task.Status != models.TaskSubmitted {
		return models.SongTask{}, ErrInvalidStatus
	}
	if err := ctx.Err(); err != nil {
		return models.SongTask{}, err
	}

	now := s.now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = now
	}
	if task.SongUUIDs == nil {
		task.SongUUIDs = []string{}
	}

	if err := s.store.InsertTask(ctx, task); err != nil {
		return models.SongTask{}, err
	}
	return task, nil
}

func (s *service) UpdateStatus(ctx context.Context, task models.SongTask) (models.SongTask, error) {
	if task.UUID == "" {
		return models.SongTask{}, ErrMissingUUID
	}
	if !task.Status.Valid() {
		return models.SongTask{}, ErrInvalidStatus
	}
	from := allowedFrom[task.Status]
	if err := ctx.Err(); err != nil {
		return models.SongTask{}, err
	}

	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = s.now()
	}
	if task.SongUUIDs == nil {
		task.SongUUIDs = []string{}
	}

	if err := s.store.UpdateTask(ctx, task, from); err != nil {
		return models.SongTask{}, err
	}
	return task, nil
}

func (s *service) Get(ctx context.Context, uuid string) (models.SongTask, error) {
	if err := ctx.Err(); err != nil {
		return models.SongTask{}, err
	}
	return s.store.TaskByUUID(ctx, uuid)
}

func (s *service) ListForUser(ctx context.Context, userUUID string, page, limit int) ([]models.SongTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.TasksByUser(ctx, userUUID, page, limit)
}

func (s *service) CountForUser(ctx context.Context, userUUID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.store.CountTasksByUser(ctx, userUUID)
}

// CreatedSongsForUser returns the songs produced by one page of the user's
// tasks. It never fails: store errors are logged and yield an empty list.
func (s *service) CreatedSongsForUser(ctx context.Context, userUUID string, page, limit int) []models.Song {
	tasks, err := s.store.TasksByUser(ctx, userUUID, page, limit)
	if err != nil {
		s.degraded(ctx, err, userUUID, "list tasks")
		return []models.Song{}
	}

	var uuids []string
	for _, task := range tasks {
		uuids = append(uuids, task.SongUUIDs...)
	}
	if len(uuids) == 0 {
		return []models.Song{}
	}

	songs, err := s.store.SongsByUUIDs(ctx, uuids, []string{models.SongStatusForbidden, models.SongStatusDeleted})
	if err != nil {
		s.degraded(ctx, err, userUUID, "load created songs")
		return []models.Song{}
	}
	return s.moderator.ApplyAll(songs)
}

func (s *service) degraded(ctx context.Context, err error, userUUID, step string) {
	logger := logging.WithContext(ctx, s.logger)
	logger.Warn().Err(err).
		Str("user_uuid", userUUID).
		Str("step", step).
		Msg("degraded: created songs unavailable")
}
