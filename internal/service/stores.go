package service

import "chunkreading/internal/models"

// PassageStore persists passages. ReplaceSentences also clears the progress
// recorded against the old sentence list; DeletePassage removes it.
type PassageStore interface {
	CreatePassage(p *models.Passage) error
	GetPassage(id string) (*models.Passage, error)
	ListPassages() ([]models.Passage, error)
	UpdatePassage(p *models.Passage) (bool, error)
	ReplaceSentences(p *models.Passage) (bool, error)
	DeletePassage(id string) (bool, error)
}

// ProgressStore persists sentence scores and learners' passage sessions.
// Getters return nil without error when nothing is stored.
type ProgressStore interface {
	SaveSentenceScore(studentID, passageID string, index int, score models.SentenceScore) error
	GetScores(studentID, passageID string) ([]models.StoredScore, error)
	PassedIndices(studentID, passageID string) ([]int, error)
	GetSession(studentID, passageID string) (*models.PassageSession, error)
	SaveSession(s *models.PassageSession) error
}

// AnalysisStore persists learners' sentence analyses
type AnalysisStore interface {
	SaveAnalysis(a *models.SentenceAnalysis) error
	GetAnalysis(studentID, passageID string, index int) (*models.SentenceAnalysis, error)
}
