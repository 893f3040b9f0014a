package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"chunkreading/internal/database"
	"chunkreading/internal/models"
	"chunkreading/internal/repository"
	"chunkreading/internal/security"
	"chunkreading/internal/service"
)

type stubScorer struct{}

func (stubScorer) SplitSentences(ctx context.Context, passage string) ([]string, error) {
	return []string{"The cat sat.", "Dogs bark."}, nil
}

func (stubScorer) GradeStructure(ctx context.Context, sentence, markingDescription string) (*models.StructureGrade, error) {
	return &models.StructureGrade{Score: 90, Feedback: "ok", CorrectMarkings: []string{}, Suggestions: []string{}}, nil
}

func (stubScorer) GradeTranslation(ctx context.Context, original, translation string) (*models.TranslationGrade, error) {
	return &models.TranslationGrade{Score: 85, Feedback: "ok", MisunderstoodWords: []string{}, Strengths: []string{}, Improvements: []string{}}, nil
}

func (stubScorer) Translate(ctx context.Context, sentence string) (*models.ModelTranslation, error) {
	return &models.ModelTranslation{Translation: "번역", Backbone: sentence}, nil
}

type testServer struct {
	handler http.Handler
	startup *StartupStatus
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	passageRepo := repository.NewPassageRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)

	scorer := stubScorer{}
	passageService := service.NewPassageService(passageRepo, scorer)
	studyService := service.NewStudyService(passageRepo, progressRepo, analysisRepo, service.NewGradingService(scorer), scorer, nil)

	verifier := security.NewTokenVerifier("test-secret")
	limiter := security.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)

	token, err := verifier.Issue("student-1", time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	startup := NewStartupStatus()
	mux := http.NewServeMux()
	RegisterRoutes(mux, NewMiddleware(verifier, limiter, false),
		NewPassageHandler(passageService, studyService), NewStudyHandler(studyService), startup)

	return &testServer{handler: Logging(mux), startup: startup, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(recorder.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
}

func (s *testServer) createPassage(t *testing.T) string {
	t.Helper()
	rec := s.do(t, "POST", "/api/passages", map[string]string{"title": "Pets", "text": "The cat sat. Dogs bark."})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created service.CreatePassageResult
	decodeBody(t, rec, &created)
	return created.Passage.ID
}

func TestProbes(t *testing.T) {
	s := newTestServer(t)

	if rec := s.do(t, "GET", "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	if rec := s.do(t, "GET", "/readyz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before ready status = %d", rec.Code)
	}
	s.startup.CompleteStep(StepDatabase)
	s.startup.MarkReady()
	rec := s.do(t, "GET", "/readyz", nil)
	var status struct {
		Ready    bool `json:"ready"`
		Progress int  `json:"progress"`
	}
	decodeBody(t, rec, &status)
	if rec.Code != http.StatusOK || !status.Ready || status.Progress != 100 {
		t.Errorf("readyz = %d %+v", rec.Code, status)
	}
}

func TestRequireStudent(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing", token: ""},
		{name: "garbage", token: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.token = tt.token
			if rec := s.do(t, "GET", "/api/passages", nil); rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestPassageLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := s.createPassage(t)

	rec := s.do(t, "GET", "/api/passages", nil)
	var summaries []models.PassageSummary
	decodeBody(t, rec, &summaries)
	if len(summaries) != 1 || summaries[0].SentenceCount != 2 {
		t.Errorf("summaries = %+v", summaries)
	}

	rec = s.do(t, "PUT", "/api/passages/"+id, map[string]interface{}{"sentences": []string{"One.", "Two.", "Three."}})
	var updated models.Passage
	decodeBody(t, rec, &updated)
	if rec.Code != http.StatusOK || updated.SentenceCount() != 3 {
		t.Errorf("update = %d %+v", rec.Code, updated)
	}

	if rec := s.do(t, "PUT", "/api/passages/"+id, map[string]interface{}{"sentences": []string{}}); rec.Code != http.StatusBadRequest {
		t.Errorf("update without sentences status = %d, want 400", rec.Code)
	}
	if rec := s.do(t, "POST", "/api/passages", map[string]string{"title": "x", "text": "y", "difficulty": "extreme"}); rec.Code != http.StatusBadRequest {
		t.Errorf("create with bad difficulty status = %d, want 400", rec.Code)
	}

	if rec := s.do(t, "DELETE", "/api/passages/"+id, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := s.do(t, "GET", "/api/passages/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestStudyFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.createPassage(t)
	base := "/api/passages/" + id + "/study"

	if rec := s.do(t, "GET", base, nil); rec.Code != http.StatusNotFound {
		t.Errorf("view before open status = %d, want 404", rec.Code)
	}

	rec := s.do(t, "POST", base, nil)
	var view service.StudyView
	decodeBody(t, rec, &view)
	if rec.Code != http.StatusOK || view.SentenceIndex != 0 || len(view.Tokens) != 3 {
		t.Fatalf("open = %d %+v", rec.Code, view)
	}

	validationCases := []struct {
		path string
		body interface{}
	}{
		{path: "/marking", body: map[string]string{"type": "adverb"}},
		{path: "/toggle", body: map[string]string{}},
		{path: "/toggle", body: map[string]int{"index": -1}},
		{path: "/apply"},
		{path: "/sentence", body: map[string]int{"index": 9}},
		{path: "/submit", body: map[string]string{"translation": ""}},
	}
	for _, tc := range validationCases {
		if rec := s.do(t, "POST", base+tc.path, tc.body); rec.Code != http.StatusBadRequest {
			t.Errorf("POST %s status = %d, want 400 (%s)", tc.path, rec.Code, rec.Body.String())
		}
	}

	s.do(t, "POST", base+"/marking", map[string]string{"type": "verb"})
	s.do(t, "POST", base+"/toggle", map[string]int{"index": 2})
	rec = s.do(t, "POST", base+"/apply", nil)
	decodeBody(t, rec, &view)
	if len(view.Groups) != 1 || !view.Tokens[2].Decoration.Underline {
		t.Fatalf("view after apply = %+v", view)
	}

	rec = s.do(t, "POST", base+"/submit", map[string]string{"translation": "고양이가 앉았다"})
	var result service.SubmitResult
	decodeBody(t, rec, &result)
	if rec.Code != http.StatusOK || !result.Grade.Passed || !result.Advanced || result.View.SentenceIndex != 1 {
		t.Fatalf("submit = %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, "GET", "/api/passages/"+id+"/statistics", nil)
	var stats models.Statistics
	decodeBody(t, rec, &stats)
	if stats.ScoredCount != 1 || stats.ProgressPercent != 50 {
		t.Errorf("stats = %+v", stats)
	}

	s.do(t, "POST", base+"/sentence", map[string]int{"index": 0})
	rec = s.do(t, "POST", base+"/reload", nil)
	var reloaded reloadResponse
	decodeBody(t, rec, &reloaded)
	if reloaded.Translation != "고양이가 앉았다" || len(reloaded.View.Groups) != 1 {
		t.Errorf("reload = %+v", reloaded)
	}

	rec = s.do(t, "GET", "/api/passages/"+id+"/sentences/1/answer", nil)
	var answer models.ModelTranslation
	decodeBody(t, rec, &answer)
	if answer.Backbone != "Dogs bark." {
		t.Errorf("answer = %+v", answer)
	}
	if rec := s.do(t, "GET", "/api/passages/"+id+"/sentences/x/answer", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("answer with bad index status = %d, want 400", rec.Code)
	}

	if rec := s.do(t, "DELETE", base, nil); rec.Code != http.StatusNoContent {
		t.Errorf("close status = %d", rec.Code)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	s := newTestServer(t)
	id := s.createPassage(t)
	base := "/api/passages/" + id + "/study"
	s.do(t, "POST", base, nil)

	body := map[string]string{"translation": "번역"}
	// rejected submits still count against the limit
	s.do(t, "POST", base+"/submit", body)
	s.do(t, "POST", base+"/submit", body)
	if rec := s.do(t, "POST", base+"/submit", body); rec.Code != http.StatusTooManyRequests {
		t.Errorf("third submit status = %d, want 429", rec.Code)
	}
}
