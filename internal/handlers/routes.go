package handlers

import "net/http"

// RegisterRoutes wires the JSON API onto mux
func RegisterRoutes(mux *http.ServeMux, m *Middleware, passages *PassageHandler, study *StudyHandler, startup *StartupStatus) {
	// Probes
	mux.HandleFunc("GET /healthz", Health)
	mux.HandleFunc("GET /readyz", startup.ShowStartupStatus)

	// Passage routes
	mux.HandleFunc("GET /api/passages", m.RequireStudent(passages.ListPassages))
	mux.HandleFunc("POST /api/passages", m.RequireStudent(passages.CreatePassage))
	mux.HandleFunc("GET /api/passages/{id}", m.RequireStudent(passages.GetPassage))
	mux.HandleFunc("PUT /api/passages/{id}", m.RequireStudent(passages.UpdatePassage))
	mux.HandleFunc("DELETE /api/passages/{id}", m.RequireStudent(passages.DeletePassage))

	// Study routes
	mux.HandleFunc("POST /api/passages/{id}/study", m.RequireStudent(study.Open))
	mux.HandleFunc("GET /api/passages/{id}/study", m.RequireStudent(study.View))
	mux.HandleFunc("DELETE /api/passages/{id}/study", m.RequireStudent(study.Close))
	mux.HandleFunc("POST /api/passages/{id}/study/sentence", m.RequireStudent(study.SelectSentence))
	mux.HandleFunc("POST /api/passages/{id}/study/advance", m.RequireStudent(study.Advance))
	mux.HandleFunc("POST /api/passages/{id}/study/backbone", m.RequireStudent(study.ToggleBackbone))
	mux.HandleFunc("POST /api/passages/{id}/study/marking", m.RequireStudent(study.SelectMarkingType))
	mux.HandleFunc("POST /api/passages/{id}/study/toggle", m.RequireStudent(study.ToggleToken))
	mux.HandleFunc("POST /api/passages/{id}/study/apply", m.RequireStudent(study.ApplyMarking))
	mux.HandleFunc("POST /api/passages/{id}/study/clear", m.RequireStudent(study.ClearSelection))
	mux.HandleFunc("POST /api/passages/{id}/study/undo", m.RequireStudent(study.UndoLastMarking))
	mux.HandleFunc("POST /api/passages/{id}/study/reload", m.RequireStudent(study.ReloadAnalysis))
	mux.HandleFunc("POST /api/passages/{id}/study/submit", m.RequireStudent(m.RateLimit(study.Submit)))
	mux.HandleFunc("GET /api/passages/{id}/statistics", m.RequireStudent(study.Statistics))
	mux.HandleFunc("GET /api/passages/{id}/sentences/{index}/answer", m.RequireStudent(study.ModelAnswer))
}
