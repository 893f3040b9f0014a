package models

import "time"

// PassThreshold is the minimum score on both tracks for a sentence to pass
const PassThreshold = 80

// SentenceScore is the dual-track grade of one sentence. A nil score means
// the track has not been graded or the scorer was unavailable.
type SentenceScore struct {
	StructuralScore  *int `json:"structuralScore"`
	TranslationScore *int `json:"translationScore"`
	Degraded         bool `json:"degraded,omitempty"`
}

// Passed reports whether both scores are present and at or above PassThreshold
func (s SentenceScore) Passed() bool {
	if s.StructuralScore == nil || s.TranslationScore == nil {
		return false
	}
	return *s.StructuralScore >= PassThreshold && *s.TranslationScore >= PassThreshold
}

// Complete reports whether both tracks carry a score
func (s SentenceScore) Complete() bool {
	return s.StructuralScore != nil && s.TranslationScore != nil
}

// StoredScore is a persisted sentence score row
type StoredScore struct {
	StudentID     string        `json:"studentId"`
	PassageID     string        `json:"passageId"`
	SentenceIndex int           `json:"sentenceIndex"`
	Score         SentenceScore `json:"score"`
	Passed        bool          `json:"passed"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
