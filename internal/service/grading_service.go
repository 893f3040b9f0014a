package service

import (
	"context"
	"log"
	"sync"

	"chunkreading/internal/chunk"
	"chunkreading/internal/models"
	"chunkreading/internal/scoring"
	"chunkreading/internal/validation"
)

// UnavailableFeedback replaces the feedback of a track the scorer could not grade
const UnavailableFeedback = "Scoring is temporarily unavailable. Please try again later."

// GradeRequest is a learner's submission for one sentence
type GradeRequest struct {
	Sentence    string
	Tokens      []chunk.Token
	Groups      []chunk.WordGroup
	Translation string
}

// GradeResult combines both grading tracks
type GradeResult struct {
	Score              models.SentenceScore     `json:"score"`
	Passed             bool                     `json:"passed"`
	Structure          *models.StructureGrade   `json:"structure"`
	Translation        *models.TranslationGrade `json:"translation"`
	MarkingDescription string                   `json:"markingDescription"`
}

// GradingService grades the structural marking and the translation of a
// sentence and combines them into a SentenceScore
type GradingService struct {
	scorer scoring.Service
}

// NewGradingService creates a new grading service
func NewGradingService(scorer scoring.Service) *GradingService {
	return &GradingService{scorer: scorer}
}

// Grade scores a submission. Both tracks are requested concurrently; a track
// that fails leaves its score unset and marks the result degraded, so the
// sentence cannot pass. Failures are never retried.
func (s *GradingService) Grade(ctx context.Context, req GradeRequest) (*GradeResult, error) {
	if len(req.Groups) == 0 {
		return nil, validation.ValidationError{Field: "groups", Message: "mark at least one group before submitting"}
	}
	if err := validation.ValidateTranslation(req.Translation); err != nil {
		return nil, err
	}

	description := chunk.DescribeGroups(req.Tokens, req.Groups)

	var (
		wg             sync.WaitGroup
		structure      *models.StructureGrade
		translation    *models.TranslationGrade
		structureErr   error
		translationErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		structure, structureErr = s.scorer.GradeStructure(ctx, req.Sentence, description)
	}()
	go func() {
		defer wg.Done()
		translation, translationErr = s.scorer.GradeTranslation(ctx, req.Sentence, req.Translation)
	}()
	wg.Wait()

	result := &GradeResult{MarkingDescription: description}

	if structureErr != nil {
		log.Printf("Failed to grade structure: %v", structureErr)
		result.Score.Degraded = true
		result.Structure = &models.StructureGrade{
			Feedback:        UnavailableFeedback,
			CorrectMarkings: []string{},
			Suggestions:     []string{},
		}
	} else {
		result.Structure = structure
		result.Score.StructuralScore = models.IntPtr(structure.Score)
	}

	if translationErr != nil {
		log.Printf("Failed to grade translation: %v", translationErr)
		result.Score.Degraded = true
		result.Translation = &models.TranslationGrade{
			Feedback:           UnavailableFeedback,
			MisunderstoodWords: []string{},
			Strengths:          []string{},
			Improvements:       []string{},
		}
	} else {
		result.Translation = translation
		result.Score.TranslationScore = models.IntPtr(translation.Score)
	}

	result.Passed = result.Score.Passed()
	return result, nil
}
