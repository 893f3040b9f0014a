package models

import (
	"time"

	"chunkreading/internal/chunk"
)

// SentenceAnalysis is a learner's committed marking and translation for one
// sentence, saved on submit and reloaded on request
type SentenceAnalysis struct {
	StudentID     string            `json:"studentId"`
	PassageID     string            `json:"passageId"`
	SentenceIndex int               `json:"sentenceIndex"`
	Groups        []chunk.WordGroup `json:"groups"`
	Translation   string            `json:"translation"`
	Completed     bool              `json:"completed"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}
