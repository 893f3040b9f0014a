package handlers

import (
	"net/http"
	"strconv"

	"chunkreading/internal/service"
	"chunkreading/internal/validation"
)

// StudyHandler serves a learner's study session on a passage. Every route
// acts on the session of the authenticated learner.
type StudyHandler struct {
	study *service.StudyService
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(study *service.StudyService) *StudyHandler {
	return &StudyHandler{study: study}
}

type indexRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

type markingRequest struct {
	Type string `json:"type" validate:"required"`
}

type submitRequest struct {
	Translation string `json:"translation" validate:"required,max=2000"`
}

type reloadResponse struct {
	View        *service.StudyView `json:"view"`
	Translation string             `json:"translation"`
}

type viewAction func(studentID, passageID string) (*service.StudyView, error)

// respondView runs an action that returns the session view
func (h *StudyHandler) respondView(w http.ResponseWriter, r *http.Request, logMsg string, action viewAction) {
	view, err := action(GetStudentID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, logMsg, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Open starts or resumes the session
func (h *StudyHandler) Open(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, "Failed to open study session", h.study.Open)
}

// View returns the current session state
func (h *StudyHandler) View(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, "Failed to load study session", h.study.View)
}

// Close drops the live session
func (h *StudyHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.study.Close(GetStudentID(r.Context()), r.PathValue("id")); err != nil {
		respondServiceError(w, "Failed to close study session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectSentence jumps to a sentence
func (h *StudyHandler) SelectSentence(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondView(w, r, "Failed to select sentence", func(studentID, passageID string) (*service.StudyView, error) {
		return h.study.SelectSentence(studentID, passageID, *req.Index)
	})
}

// Advance moves to the next sentence
func (h *StudyHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, "Failed to advance", h.study.Advance)
}

// ToggleBackbone flips the backbone view
func (h *StudyHandler) ToggleBackbone(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, "Failed to toggle backbone", h.study.ToggleBackbone)
}

// SelectMarkingType switches the active marking type
func (h *StudyHandler) SelectMarkingType(w http.ResponseWriter, r *http.Request) {
	var req markingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondView(w, r, "Failed to select marking type", func(studentID, passageID string) (*service.StudyView, error) {
		return h.study.SelectMarkingType(studentID, passageID, req.Type)
	})
}

// ToggleToken flips a token in the pending selection
func (h *StudyHandler) ToggleToken(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondView(w, r, "Failed to toggle token", func(studentID, passageID string) (*service.StudyView, error) {
		return h.study.ToggleToken(studentID, passageID, *req.Index)
	})
}

// ApplyMarking commits the pending selection
func (h *StudyHandler) ApplyMarking(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, "Failed to apply marking", h.study.ApplyMarking)
}

// ClearSelection drops the pending selection
func (h *StudyHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, "Failed to clear selection", h.study.ClearSelection)
}

// UndoLastMarking removes the newest group
func (h *StudyHandler) UndoLastMarking(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, "Failed to undo marking", h.study.UndoLastMarking)
}

// ReloadAnalysis restores the saved analysis of the current sentence
func (h *StudyHandler) ReloadAnalysis(w http.ResponseWriter, r *http.Request) {
	view, translation, err := h.study.ReloadAnalysis(GetStudentID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, "Failed to reload analysis", err)
		return
	}
	respondJSON(w, http.StatusOK, reloadResponse{View: view, Translation: translation})
}

// Submit grades the current sentence
func (h *StudyHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.study.Submit(r.Context(), GetStudentID(r.Context()), r.PathValue("id"), req.Translation)
	if err != nil {
		respondServiceError(w, "Failed to submit sentence", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Statistics returns the learner's scores on the passage
func (h *StudyHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.study.Statistics(GetStudentID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, "Failed to build statistics", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// ModelAnswer returns the AI translation of a sentence
func (h *StudyHandler) ModelAnswer(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		respondServiceError(w, "", validation.ValidationError{Field: "index", Message: "index must be a number"})
		return
	}

	answer, err := h.study.ModelAnswer(r.Context(), r.PathValue("id"), index)
	if err != nil {
		respondServiceError(w, "Failed to get model answer", err)
		return
	}
	respondJSON(w, http.StatusOK, answer)
}
