package study

import (
	"reflect"
	"testing"

	"chunkreading/internal/chunk"
	"chunkreading/internal/models"
	"chunkreading/internal/validation"
)

func testPassage() *models.Passage {
	return &models.Passage{
		ID:        "p1",
		Title:     "Test",
		Sentences: []string{"The cat sat.", "Dogs bark loudly.", "Birds sing at dawn."},
	}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(testPassage(), models.NewPassageSession("s1", "p1", 3))
	if err != nil {
		t.Fatalf("NewSession() unexpected error: %v", err)
	}
	return s
}

func TestNewSessionRejectsEmptyPassage(t *testing.T) {
	_, err := NewSession(&models.Passage{ID: "empty"}, models.NewPassageSession("s1", "empty", 0))
	if err == nil {
		t.Fatal("NewSession() expected error for passage without sentences")
	}
}

func TestNewSessionClampsStaleIndex(t *testing.T) {
	progress := models.NewPassageSession("s1", "p1", 10)
	progress.CurrentSentenceIndex = 7

	s, err := NewSession(testPassage(), progress)
	if err != nil {
		t.Fatalf("NewSession() unexpected error: %v", err)
	}
	if s.CurrentIndex() != 0 || s.Progress().SentenceCount != 3 {
		t.Errorf("index/count = %d/%d, want 0/3", s.CurrentIndex(), s.Progress().SentenceCount)
	}
	if progress.CurrentSentenceIndex != 7 {
		t.Error("NewSession() mutated the caller's progress")
	}
}

func TestSelectSentenceDiscardsAnnotation(t *testing.T) {
	s := newTestSession(t)
	e := s.Engine()
	e.SelectMarkingType(chunk.Verb)
	e.ToggleToken(2)
	if _, err := e.ApplyMarking(); err != nil {
		t.Fatalf("ApplyMarking() unexpected error: %v", err)
	}
	e.SelectMarkingType(chunk.Modifier)
	e.ToggleToken(0)
	gen := s.Generation()

	if err := s.SelectSentence(1); err != nil {
		t.Fatalf("SelectSentence() unexpected error: %v", err)
	}

	if len(s.Engine().Groups()) != 0 || len(s.Engine().Selection()) != 0 || s.Engine().Mode() != chunk.Idle {
		t.Error("new sentence should start with an empty annotation")
	}
	if s.Engine().Sentence() != "Dogs bark loudly." {
		t.Errorf("Sentence() = %q", s.Engine().Sentence())
	}
	if s.Generation() == gen {
		t.Error("Generation() should change when the engine is replaced")
	}
}

func TestSelectSameSentenceKeepsAnnotation(t *testing.T) {
	s := newTestSession(t)
	s.Engine().SelectMarkingType(chunk.Verb)
	s.Engine().ToggleToken(1)
	gen := s.Generation()

	if err := s.SelectSentence(0); err != nil {
		t.Fatalf("SelectSentence() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(s.Engine().Selection(), []int{1}) || s.Generation() != gen {
		t.Error("selecting the current sentence should not reset the engine")
	}
}

func TestSelectSentenceOutOfRange(t *testing.T) {
	s := newTestSession(t)
	gen := s.Generation()
	if err := s.SelectSentence(3); !validation.IsValidationError(err) {
		t.Fatalf("SelectSentence(3) error = %v, want ValidationError", err)
	}
	if s.CurrentIndex() != 0 || s.Generation() != gen {
		t.Error("failed SelectSentence changed the session")
	}
}

func TestAdvanceOnLastSentence(t *testing.T) {
	s := newTestSession(t)
	s.Advance()
	s.Advance()
	gen := s.Generation()
	s.Advance()
	if s.CurrentIndex() != 2 || s.Generation() != gen {
		t.Errorf("index/generation = %d/%d, want 2/%d", s.CurrentIndex(), s.Generation(), gen)
	}
}

func TestScoredAndAdopt(t *testing.T) {
	s := newTestSession(t)

	pass := models.SentenceScore{StructuralScore: models.IntPtr(85), TranslationScore: models.IntPtr(90)}
	next, passed := s.Scored(0, pass)
	if !passed {
		t.Fatal("Scored() passed = false, want true")
	}
	if s.CurrentIndex() != 0 || s.Progress().IsCompleted(0) {
		t.Fatal("Scored() must not mutate the session")
	}
	s.Adopt(next)

	fail := models.SentenceScore{StructuralScore: models.IntPtr(60), TranslationScore: models.IntPtr(90)}
	next, passed = s.Scored(1, fail)
	if passed {
		t.Fatal("Scored() passed = true, want false")
	}
	s.Adopt(next)

	p := s.Progress()
	if !reflect.DeepEqual(p.Completed(), []int{0}) || p.CurrentSentenceIndex != 1 || p.ProgressPercent() != 33 {
		t.Errorf("progress = completed %v current %d percent %d", p.Completed(), p.CurrentSentenceIndex, p.ProgressPercent())
	}
}

func TestScoredNonCurrentSentenceDoesNotMove(t *testing.T) {
	s := newTestSession(t)
	if err := s.SelectSentence(2); err != nil {
		t.Fatalf("SelectSentence() unexpected error: %v", err)
	}
	pass := models.SentenceScore{StructuralScore: models.IntPtr(100), TranslationScore: models.IntPtr(100)}
	next, _ := s.Scored(0, pass)
	if next.CurrentSentenceIndex != 2 || !next.IsCompleted(0) {
		t.Errorf("next = current %d completed %v", next.CurrentSentenceIndex, next.Completed())
	}
}

func TestToggleBackboneAffectsRender(t *testing.T) {
	s := newTestSession(t)
	e := s.Engine()
	e.SelectMarkingType(chunk.Modifier)
	e.ToggleToken(0)
	if _, err := e.ApplyMarking(); err != nil {
		t.Fatalf("ApplyMarking() unexpected error: %v", err)
	}

	if s.Render()[0].Decoration.Dimmed {
		t.Error("token dimmed before backbone view is on")
	}
	if !s.ToggleBackbone() {
		t.Fatal("ToggleBackbone() = false, want true")
	}
	if !s.Render()[0].Decoration.Dimmed {
		t.Error("modifier token should be dimmed in backbone view")
	}
}
