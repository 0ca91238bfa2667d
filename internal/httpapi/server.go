package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"songhound/internal/app/interactions"
	"songhound/internal/app/tasks"
	"songhound/internal/identity"
	"songhound/internal/logging"
	"songhound/internal/models"
	"songhound/internal/store"
)

// CatalogService exposes the catalog views.
type CatalogService interface {
	Latest(ctx context.Context, provider string, page, limit int) ([]models.Song, error)
	Trending(ctx context.Context, provider string, page, limit int) ([]models.Song, error)
	Random(ctx context.Context, provider string, page, limit int) ([]models.Song, error)
	ByUser(ctx context.Context, userUUID string, page, limit int) ([]models.Song, error)
	Song(ctx context.Context, uuid string) (models.Song, error)
	Count(ctx context.Context) (int, error)
	IncrementPlayCount(ctx context.Context, uuid string) error
}

// TaskService coordinates generation task workflows.
type TaskService interface {
	Create(ctx context.Context, task models.SongTask) (models.SongTask, error)
	UpdateStatus(ctx context.Context, task models.SongTask) (models.SongTask, error)
	Get(ctx context.Context, uuid string) (models.SongTask, error)
	ListForUser(ctx context.Context, userUUID string, page, limit int) ([]models.SongTask, error)
	CountForUser(ctx context.Context, userUUID string) (int, error)
	CreatedSongsForUser(ctx context.Context, userUUID string, page, limit int) []models.Song
}

// InteractionService coordinates plays and favorites.
type InteractionService interface {
	RecordPlay(ctx context.Context, songUUID, userUUID string, at time.Time) error
	PlayHistory(ctx context.Context, userUUID string, page, limit int) models.PlayHistory
	SetFavorite(ctx context.Context, songUUID, userUUID, status string) (models.FavoriteSong, error)
	Favorite(ctx context.Context, songUUID, userUUID string) (models.FavoriteSong, bool, error)
	UserFavorites(ctx context.Context, userUUID string, page, limit int) ([]models.Song, error)
}

// OrchestratorTokenHeader carries the shared secret of the generation orchestrator.
const OrchestratorTokenHeader = "X-Orchestrator-Token"

// Server wires HTTP handlers to the underlying services.
type Server struct {
	catalog           CatalogService
	tasks             TaskService
	interactions      InteractionService
	logger            zerolog.Logger
	healthCheck       func(ctx context.Context) error
	orchestratorToken string
}

// Option customizes a Server.
type Option func(*Server)

// WithHealthCheck makes /health answer 503 while check fails.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.healthCheck = check
	}
}

// WithOrchestratorToken sets the token the generation orchestrator presents to
// update tasks. Without one, task updates are refused.
func WithOrchestratorToken(token string) Option {
	return func(s *Server) {
		s.orchestratorToken = token
	}
}

// New configures a Server with the given services.
func New(catalog CatalogService, tasks TaskService, interactions InteractionService, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		catalog:      catalog,
		tasks:        tasks,
		interactions: interactions,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes mounts every handler on a router. Fixed paths are registered before
// their {uuid} siblings so they win the match.
func (s *Server) Routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/songs/latest", s.handleLatest).Methods(http.MethodGet)
	api.HandleFunc("/songs/trending", s.handleTrending).Methods(http.MethodGet)
	api.HandleFunc("/songs/random", s.handleRandom).Methods(http.MethodGet)
	api.HandleFunc("/songs/count", s.handleSongCount).Methods(http.MethodGet)
	api.HandleFunc("/songs/{uuid}", s.handleSong).Methods(http.MethodGet)
	api.HandleFunc("/songs/{uuid}/play", s.handlePlay).Methods(http.MethodPost)
	api.HandleFunc("/users/{uuid}/songs", s.handleUserSongs).Methods(http.MethodGet)

	api.HandleFunc("/tasks", s.handleCreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{uuid}", s.handleTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{uuid}", s.handleUpdateTask).Methods(http.MethodPut)

	api.HandleFunc("/me/tasks", s.handleMyTasks).Methods(http.MethodGet)
	api.HandleFunc("/me/songs", s.handleMySongs).Methods(http.MethodGet)
	api.HandleFunc("/me/plays", s.handleMyPlays).Methods(http.MethodGet)
	api.HandleFunc("/me/favorites", s.handleMyFavorites).Methods(http.MethodGet)
	api.HandleFunc("/me/favorites/{song_uuid}", s.handleFavorite).Methods(http.MethodGet)
	api.HandleFunc("/me/favorites/{song_uuid}", s.handleSetFavorite).Methods(http.MethodPut)

	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.healthCheck != nil {
		if err := s.healthCheck(r.Context()); err != nil {
			logger := logging.WithContext(r.Context(), s.logger)
			logger.Warn().Err(err).Msg("health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("UNAVAILABLE"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type errorResponse struct {
	Error string `json:"error"`
}

type songsResponse struct {
	Songs []models.Song `json:"songs"`
}

// statusForError maps service and store errors onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, tasks.ErrMissingUUID),
		errors.Is(err, tasks.ErrInvalidStatus),
		errors.Is(err, interactions.ErrInvalidFavoriteStatus):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrSongNotFound),
		errors.Is(err, store.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrSongExists),
		errors.Is(err, store.ErrTaskExists),
		errors.Is(err, store.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger := logging.WithContext(r.Context(), s.logger)
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// requireUser writes 401 and returns false when the request carries no identity.
func requireUser(w http.ResponseWriter, r *http.Request) (identity.User, bool) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing or invalid bearer token"})
		return identity.User{}, false
	}
	return user, true
}

// pageParams reads page and limit query parameters. Absent values are zero and
// left to the store's pagination defaults.
func pageParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	query := r.URL.Query()
	page, err := intParam(query.Get("page"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid page parameter"})
		return 0, 0, false
	}
	limit, err := intParam(query.Get("limit"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit parameter"})
		return 0, 0, false
	}
	return page, limit, true
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
