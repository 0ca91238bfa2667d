package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"songhound/internal/models"
)

type favoriteResponse struct {
	Favorite  *models.FavoriteSong `json:"favorite"`
	Favorited bool                 `json:"favorited"`
}

func (s *Server) handleMyPlays(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, limit, ok := pageParams(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, s.interactions.PlayHistory(r.Context(), user.UUID, page, limit))
}

func (s *Server) handleMyFavorites(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, limit, ok := pageParams(w, r)
	if !ok {
		return
	}

	songs, err := s.interactions.UserFavorites(r.Context(), user.UUID, page, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songsResponse{Songs: songs})
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	fav, found, err := s.interactions.Favorite(r.Context(), mux.Vars(r)["song_uuid"], user.UUID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, favoriteResponse{})
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{Favorite: &fav, Favorited: fav.Favorited()})
}

func (s *Server) handleSetFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	fav, err := s.interactions.SetFavorite(r.Context(), mux.Vars(r)["song_uuid"], user.UUID, req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{Favorite: &fav, Favorited: fav.Favorited()})
}
