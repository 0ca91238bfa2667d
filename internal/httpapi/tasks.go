package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"songhound/internal/models"
)

type tasksResponse struct {
	Tasks      []models.SongTask `json:"tasks"`
	TotalCount int               `json:"total_count"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var task models.SongTask
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}
	task.UserUUID = user.UUID

	created, err := s.tasks.Create(r.Context(), task)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	task, ok := s.ownedTask(w, r, user.UUID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleUpdateTask applies a status report from the generation orchestrator.
// End users cannot move their own tasks.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	if !s.fromOrchestrator(r) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "task updates are reserved for the generation orchestrator"})
		return
	}

	var task models.SongTask
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	current, err := s.tasks.Get(r.Context(), mux.Vars(r)["uuid"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	task.UUID = current.UUID
	task.UserUUID = current.UserUUID
	task.CreatedAt = current.CreatedAt

	updated, err := s.tasks.UpdateStatus(r.Context(), task)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) fromOrchestrator(r *http.Request) bool {
	if s.orchestratorToken == "" {
		return false
	}
	got := r.Header.Get(OrchestratorTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.orchestratorToken)) == 1
}

// ownedTask loads the task named in the path. Tasks of other users are
// reported as not found.
func (s *Server) ownedTask(w http.ResponseWriter, r *http.Request, userUUID string) (models.SongTask, bool) {
	task, err := s.tasks.Get(r.Context(), mux.Vars(r)["uuid"])
	if err != nil {
		s.writeError(w, r, err)
		return models.SongTask{}, false
	}
	if task.UserUUID != userUUID {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "song task not found"})
		return models.SongTask{}, false
	}
	return task, true
}

func (s *Server) handleMyTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, limit, ok := pageParams(w, r)
	if !ok {
		return
	}

	list, err := s.tasks.ListForUser(r.Context(), user.UUID, page, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	total, err := s.tasks.CountForUser(r.Context(), user.UUID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasksResponse{Tasks: list, TotalCount: total})
}

func (s *Server) handleMySongs(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, limit, ok := pageParams(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, songsResponse{Songs: s.tasks.CreatedSongsForUser(r.Context(), user.UUID, page, limit)})
}
