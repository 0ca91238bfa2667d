package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"songhound/internal/identity"
	"songhound/internal/models"
)

type listFunc func(ctx context.Context, scope string, page, limit int) ([]models.Song, error)

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	s.serveList(w, r, s.catalog.Latest, r.URL.Query().Get("provider"))
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	s.serveList(w, r, s.catalog.Trending, r.URL.Query().Get("provider"))
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	s.serveList(w, r, s.catalog.Random, r.URL.Query().Get("provider"))
}

func (s *Server) handleUserSongs(w http.ResponseWriter, r *http.Request) {
	s.serveList(w, r, s.catalog.ByUser, mux.Vars(r)["uuid"])
}

func (s *Server) serveList(w http.ResponseWriter, r *http.Request, list listFunc, scope string) {
	page, limit, ok := pageParams(w, r)
	if !ok {
		return
	}

	songs, err := list(r.Context(), scope, page, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songsResponse{Songs: songs})
}

func (s *Server) handleSongCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.catalog.Count(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Count int `json:"count"`
	}{Count: count})
}

func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	song, err := s.catalog.Song(r.Context(), mux.Vars(r)["uuid"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// handlePlay bumps the play counter and, for an identified caller, also
// records the play in their history.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	songUUID := mux.Vars(r)["uuid"]

	if err := s.catalog.IncrementPlayCount(r.Context(), songUUID); err != nil {
		s.writeError(w, r, err)
		return
	}

	if user, ok := identity.FromContext(r.Context()); ok {
		if err := s.interactions.RecordPlay(r.Context(), songUUID, user.UUID, time.Now().UTC()); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
