package handlers

import (
	"net/http"

	"chunkreading/internal/service"
)

// PassageHandler serves passage authoring routes
type PassageHandler struct {
	passages *service.PassageService
	study    *service.StudyService
}

// NewPassageHandler creates a new passage handler
func NewPassageHandler(passages *service.PassageService, study *service.StudyService) *PassageHandler {
	return &PassageHandler{
		passages: passages,
		study:    study,
	}
}

type createPassageRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	Text       string `json:"text" validate:"required"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Source     string `json:"source" validate:"max=500"`
}

type updatePassageRequest struct {
	Title     string   `json:"title" validate:"max=200"`
	Sentences []string `json:"sentences" validate:"required,min=1"`
}

// ListPassages returns every passage summary
func (h *PassageHandler) ListPassages(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.passages.ListPassages()
	if err != nil {
		respondServiceError(w, "Failed to list passages", err)
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// CreatePassage splits and stores a new passage
func (h *PassageHandler) CreatePassage(w http.ResponseWriter, r *http.Request) {
	var req createPassageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.passages.CreatePassage(r.Context(), GetStudentID(r.Context()), service.PassageInput{
		Title:      req.Title,
		Text:       req.Text,
		Difficulty: req.Difficulty,
		Source:     req.Source,
	})
	if err != nil {
		respondServiceError(w, "Failed to create passage", err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// GetPassage returns one passage with its sentences
func (h *PassageHandler) GetPassage(w http.ResponseWriter, r *http.Request) {
	p, err := h.passages.GetPassage(r.PathValue("id"))
	if err != nil {
		respondServiceError(w, "Failed to get passage", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// UpdatePassage replaces the sentences of a passage. Open study sessions on
// it are dropped.
func (h *PassageHandler) UpdatePassage(w http.ResponseWriter, r *http.Request) {
	var req updatePassageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	p, err := h.passages.UpdateSentences(id, req.Title, req.Sentences)
	if err != nil {
		respondServiceError(w, "Failed to update passage", err)
		return
	}
	h.study.ForgetPassage(id)
	respondJSON(w, http.StatusOK, p)
}

// DeletePassage removes a passage and all progress on it
func (h *PassageHandler) DeletePassage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.passages.DeletePassage(id); err != nil {
		respondServiceError(w, "Failed to delete passage", err)
		return
	}
	h.study.ForgetPassage(id)
	w.WriteHeader(http.StatusNoContent)
}
