package models

import (
	"encoding/json"
	"reflect"
	"testing"

	"chunkreading/internal/validation"
)

func TestSentenceScorePassed(t *testing.T) {
	tests := []struct {
		name  string
		score SentenceScore
		want  bool
	}{
		{
			name:  "both at threshold",
			score: SentenceScore{StructuralScore: IntPtr(80), TranslationScore: IntPtr(80)},
			want:  true,
		},
		{
			name:  "translation one below",
			score: SentenceScore{StructuralScore: IntPtr(80), TranslationScore: IntPtr(79)},
			want:  false,
		},
		{
			name:  "structural one below",
			score: SentenceScore{StructuralScore: IntPtr(79), TranslationScore: IntPtr(100)},
			want:  false,
		},
		{
			name:  "structural unset",
			score: SentenceScore{TranslationScore: IntPtr(95)},
			want:  false,
		},
		{
			name:  "degraded translation",
			score: SentenceScore{StructuralScore: IntPtr(95), Degraded: true},
			want:  false,
		},
		{
			name:  "nothing graded",
			score: SentenceScore{},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.score.Passed(); got != tt.want {
				t.Errorf("SentenceScore.Passed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPassageSessionSelectSentence(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		wantErr bool
	}{
		{name: "first", index: 0},
		{name: "last", index: 2},
		{name: "negative", index: -1, wantErr: true},
		{name: "past end", index: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewPassageSession("s1", "p1", 3)
			s.CurrentSentenceIndex = 1
			err := s.SelectSentence(tt.index)
			if tt.wantErr {
				if !validation.IsValidationError(err) {
					t.Fatalf("SelectSentence(%d) error = %v, want ValidationError", tt.index, err)
				}
				if s.CurrentSentenceIndex != 1 {
					t.Errorf("index moved to %d on error", s.CurrentSentenceIndex)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectSentence(%d) unexpected error: %v", tt.index, err)
			}
			if s.CurrentSentenceIndex != tt.index {
				t.Errorf("CurrentSentenceIndex = %d, want %d", s.CurrentSentenceIndex, tt.index)
			}
		})
	}
}

func TestPassageSessionAdvanceStopsAtLast(t *testing.T) {
	s := NewPassageSession("s1", "p1", 2)
	s.Advance()
	s.Advance()
	if s.CurrentSentenceIndex != 1 {
		t.Errorf("CurrentSentenceIndex = %d, want 1", s.CurrentSentenceIndex)
	}
}

func TestPassageSessionThreeSentenceScenario(t *testing.T) {
	s := NewPassageSession("s1", "p1", 3)

	first := SentenceScore{StructuralScore: IntPtr(85), TranslationScore: IntPtr(90)}
	if first.Passed() {
		s.MarkComplete(s.CurrentSentenceIndex)
		s.Advance()
	}

	second := SentenceScore{StructuralScore: IntPtr(60), TranslationScore: IntPtr(90)}
	if second.Passed() {
		s.MarkComplete(s.CurrentSentenceIndex)
		s.Advance()
	}

	if got := s.Completed(); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("Completed() = %v, want [0]", got)
	}
	if s.CurrentSentenceIndex != 1 {
		t.Errorf("CurrentSentenceIndex = %d, want 1", s.CurrentSentenceIndex)
	}
	if got := s.ProgressPercent(); got != 33 {
		t.Errorf("ProgressPercent() = %d, want 33", got)
	}
	if s.IsComplete() {
		t.Error("IsComplete() = true, want false")
	}
}

func TestPassageSessionMarkCompleteIdempotent(t *testing.T) {
	s := NewPassageSession("s1", "p1", 2)
	s.MarkComplete(1)
	s.MarkComplete(1)
	s.MarkComplete(5)

	if got := s.Completed(); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("Completed() = %v, want [1]", got)
	}
	s.MarkComplete(0)
	if !s.IsComplete() || s.ProgressPercent() != 100 {
		t.Errorf("IsComplete/ProgressPercent = %v/%d", s.IsComplete(), s.ProgressPercent())
	}
}

func TestPassageSessionCloneIsIndependent(t *testing.T) {
	s := NewPassageSession("s1", "p1", 3)
	s.MarkComplete(0)
	c := s.Clone()
	c.MarkComplete(1)
	c.Advance()

	if s.IsCompleted(1) || s.CurrentSentenceIndex != 0 {
		t.Error("Clone() shares state with the original")
	}
}

func TestPassageSessionJSON(t *testing.T) {
	s := NewPassageSession("s1", "p1", 4)
	s.MarkComplete(2)
	s.MarkComplete(0)
	s.CurrentSentenceIndex = 3

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if raw["progressPercent"].(float64) != 50 {
		t.Errorf("progressPercent = %v, want 50", raw["progressPercent"])
	}

	var back PassageSession
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !reflect.DeepEqual(back.Completed(), []int{0, 2}) || back.CurrentSentenceIndex != 3 {
		t.Errorf("decoded session = %+v", back)
	}
}

func TestBuildStatistics(t *testing.T) {
	passage := &Passage{ID: "p1", Sentences: []string{"One.", "Two.", "Three."}}
	scores := []StoredScore{
		{SentenceIndex: 0, Score: SentenceScore{StructuralScore: IntPtr(90), TranslationScore: IntPtr(85)}},
		{SentenceIndex: 1, Score: SentenceScore{StructuralScore: IntPtr(71), TranslationScore: IntPtr(60)}},
		{SentenceIndex: 2, Score: SentenceScore{StructuralScore: IntPtr(40), Degraded: true}},
	}

	stats := BuildStatistics(passage, scores, 33)

	if stats.ScoredCount != 2 {
		t.Fatalf("ScoredCount = %d, want 2", stats.ScoredCount)
	}
	if stats.AverageStructural != 81 {
		t.Errorf("AverageStructural = %d, want 81", stats.AverageStructural)
	}
	if stats.AverageTranslation != 73 {
		t.Errorf("AverageTranslation = %d, want 73", stats.AverageTranslation)
	}
	if stats.AverageOverall != 77 {
		t.Errorf("AverageOverall = %d, want 77", stats.AverageOverall)
	}
	if !stats.Sentences[0].Passed || stats.Sentences[1].Passed || stats.Sentences[2].Passed {
		t.Errorf("passed flags = %+v", stats.Sentences)
	}
}

func TestBuildStatisticsEmpty(t *testing.T) {
	stats := BuildStatistics(&Passage{ID: "p1", Sentences: []string{"Only."}}, nil, 0)
	if stats.ScoredCount != 0 || stats.AverageOverall != 0 || len(stats.Sentences) != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
