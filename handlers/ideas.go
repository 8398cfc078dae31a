package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/alghanim/clawboard/ideas"
	"github.com/alghanim/clawboard/models"
)

type IdeasResponse struct {
	Ideas []models.Idea `json:"ideas"`
	errorField
}

// IdeasHandler manages the ideas backlog.
type IdeasHandler struct {
	Store ideas.Store
	Now   func() time.Time
}

// ListIdeas GET /api/ideas
func (h *IdeasHandler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.List(r.Context())
	if err != nil {
		respondFailure(w, "ideas", &IdeasResponse{Ideas: []models.Idea{}}, err)
		return
	}
	if list == nil {
		list = []models.Idea{}
	}
	respondJSON(w, http.StatusOK, IdeasResponse{Ideas: list})
}

// CreateIdea POST /api/ideas
func (h *IdeasHandler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	var input ideas.NewIdea
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	idea, err := input.Build(nowFunc(h.Now))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := h.Store.Append(r.Context(), idea)
	if err != nil {
		respondFailure(w, "ideas", &errorField{}, err)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}
