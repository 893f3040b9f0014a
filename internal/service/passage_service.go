package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"chunkreading/internal/models"
	"chunkreading/internal/scoring"
	"chunkreading/internal/validation"

	"github.com/google/uuid"
)

// PassageInput is the author-supplied content of a passage
type PassageInput struct {
	Title      string
	Text       string
	Difficulty string
	Source     string
}

// CreatePassageResult reports how a new passage was split
type CreatePassageResult struct {
	Passage *models.Passage `json:"passage"`
	// SplitDegraded is set when the AI splitter was unavailable and the
	// punctuation fallback was used
	SplitDegraded bool `json:"splitDegraded"`
}

// PassageService handles passage authoring
type PassageService struct {
	store  PassageStore
	scorer scoring.Service
	now    func() time.Time
}

// NewPassageService creates a new passage service
func NewPassageService(store PassageStore, scorer scoring.Service) *PassageService {
	return &PassageService{
		store:  store,
		scorer: scorer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreatePassage splits the text into sentences and stores a new passage
func (s *PassageService) CreatePassage(ctx context.Context, createdBy string, in PassageInput) (*CreatePassageResult, error) {
	if err := validation.ValidateTitle(in.Title); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, validation.ValidationError{Field: "text", Message: "text is required"}
	}
	difficulty, err := normalizeDifficulty(in.Difficulty)
	if err != nil {
		return nil, err
	}

	sentences, degraded := s.split(ctx, text)
	if len(sentences) == 0 {
		return nil, validation.ValidationError{Field: "text", Message: "text contains no sentences"}
	}

	now := s.now()
	p := &models.Passage{
		ID:         uuid.NewString(),
		Title:      strings.TrimSpace(in.Title),
		RawText:    text,
		Sentences:  sentences,
		Difficulty: difficulty,
		Source:     strings.TrimSpace(in.Source),
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreatePassage(p); err != nil {
		return nil, fmt.Errorf("failed to create passage: %w", err)
	}

	log.Printf("Passage created: id=%s sentences=%d fallback=%v", p.ID, len(sentences), degraded)
	return &CreatePassageResult{Passage: p, SplitDegraded: degraded}, nil
}

// GetPassage returns a passage or ErrNotFound
func (s *PassageService) GetPassage(id string) (*models.Passage, error) {
	p, err := s.store.GetPassage(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// ListPassages returns a summary of every passage
func (s *PassageService) ListPassages() ([]models.PassageSummary, error) {
	passages, err := s.store.ListPassages()
	if err != nil {
		return nil, err
	}

	summaries := make([]models.PassageSummary, len(passages))
	for i, p := range passages {
		summaries[i] = models.PassageSummary{
			ID:            p.ID,
			Title:         p.Title,
			Difficulty:    p.Difficulty,
			SentenceCount: p.SentenceCount(),
			CreatedAt:     p.CreatedAt,
		}
	}
	return summaries, nil
}

// UpdateSentences replaces the title and sentence list of a passage. An
// empty title keeps the current one. When the sentence list changes, scores,
// sessions and analyses stored by sentence index are cleared with it.
func (s *PassageService) UpdateSentences(id, title string, sentences []string) (*models.Passage, error) {
	cleaned := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		if sentence = strings.TrimSpace(sentence); sentence != "" {
			cleaned = append(cleaned, sentence)
		}
	}
	if len(cleaned) == 0 {
		return nil, validation.ValidationError{Field: "sentences", Message: "at least one sentence is required"}
	}

	p, err := s.GetPassage(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) != "" {
		if err := validation.ValidateTitle(title); err != nil {
			return nil, err
		}
		p.Title = strings.TrimSpace(title)
	}
	changed := !slices.Equal(p.Sentences, cleaned)
	p.Sentences = cleaned
	p.RawText = strings.Join(cleaned, " ")
	p.UpdatedAt = s.now()

	update := s.store.UpdatePassage
	if changed {
		update = s.store.ReplaceSentences
	}
	found, err := update(p)
	if err != nil {
		return nil, fmt.Errorf("failed to update passage: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return p, nil
}

// DeletePassage removes a passage and everything recorded against it
func (s *PassageService) DeletePassage(id string) error {
	found, err := s.store.DeletePassage(id)
	if err != nil {
		return fmt.Errorf("failed to delete passage: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// split asks the AI service for sentences and falls back to punctuation
// splitting when it is unavailable
func (s *PassageService) split(ctx context.Context, text string) ([]string, bool) {
	sentences, err := s.scorer.SplitSentences(ctx, text)
	if err == nil && len(sentences) > 0 {
		return sentences, false
	}
	if err != nil && !errors.Is(err, scoring.ErrUnavailable) {
		log.Printf("Failed to split sentences: %v", err)
	}
	return scoring.FallbackSplit(text), true
}

func normalizeDifficulty(d string) (string, error) {
	switch d = strings.ToLower(strings.TrimSpace(d)); d {
	case "":
		return models.DifficultyMedium, nil
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		return d, nil
	}
	return "", validation.ValidationError{Field: "difficulty", Message: "difficulty must be one of: easy medium hard"}
}
