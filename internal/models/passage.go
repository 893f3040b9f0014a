package models

import "time"

// Passage difficulty levels
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Passage is a reading text split into the sentences a learner works through
type Passage struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	RawText    string    `json:"rawText"`
	Sentences  []string  `json:"sentences"`
	Difficulty string    `json:"difficulty"`
	Source     string    `json:"source,omitempty"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SentenceCount returns the number of sentences in the passage
func (p *Passage) SentenceCount() int {
	return len(p.Sentences)
}

// Sentence returns the sentence at index, or false when out of range
func (p *Passage) Sentence(index int) (string, bool) {
	if index < 0 || index >= len(p.Sentences) {
		return "", false
	}
	return p.Sentences[index], true
}

// PassageSummary is the list view of a passage
type PassageSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Difficulty    string    `json:"difficulty"`
	SentenceCount int       `json:"sentenceCount"`
	CreatedAt     time.Time `json:"createdAt"`
}
