package models

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"chunkreading/internal/validation"
)

// PassageSession is a learner's position and completion state in a passage
type PassageSession struct {
	StudentID            string
	PassageID            string
	CurrentSentenceIndex int
	CompletedIndices     map[int]bool
	SentenceCount        int
	UpdatedAt            time.Time
}

// NewPassageSession returns a session positioned on the first sentence
func NewPassageSession(studentID, passageID string, sentenceCount int) *PassageSession {
	return &PassageSession{
		StudentID:        studentID,
		PassageID:        passageID,
		CompletedIndices: make(map[int]bool),
		SentenceCount:    sentenceCount,
	}
}

// SelectSentence moves to any sentence of the passage
func (s *PassageSession) SelectSentence(index int) error {
	if err := validation.ValidateSentenceIndex(index, s.SentenceCount); err != nil {
		return err
	}
	s.CurrentSentenceIndex = index
	return nil
}

// Advance moves to the next sentence, staying on the last one
func (s *PassageSession) Advance() {
	if s.CurrentSentenceIndex < s.SentenceCount-1 {
		s.CurrentSentenceIndex++
	}
}

// MarkComplete records a passed sentence. Repeated calls have no effect.
func (s *PassageSession) MarkComplete(index int) {
	if index < 0 || index >= s.SentenceCount {
		return
	}
	if s.CompletedIndices == nil {
		s.CompletedIndices = make(map[int]bool)
	}
	s.CompletedIndices[index] = true
}

// IsCompleted reports whether the sentence at index has passed
func (s *PassageSession) IsCompleted(index int) bool {
	return s.CompletedIndices[index]
}

// Completed returns the completed sentence indices in ascending order
func (s *PassageSession) Completed() []int {
	out := make([]int, 0, len(s.CompletedIndices))
	for idx, done := range s.CompletedIndices {
		if done {
			out = append(out, idx)
		}
	}
	sort.Ints(out)
	return out
}

// ProgressPercent returns the rounded share of completed sentences
func (s *PassageSession) ProgressPercent() int {
	if s.SentenceCount == 0 {
		return 0
	}
	return int(math.Round(float64(len(s.Completed())) / float64(s.SentenceCount) * 100))
}

// IsComplete reports whether every sentence has passed
func (s *PassageSession) IsComplete() bool {
	return s.SentenceCount > 0 && len(s.Completed()) == s.SentenceCount
}

// Clone returns a deep copy of the session
func (s *PassageSession) Clone() *PassageSession {
	c := *s
	c.CompletedIndices = make(map[int]bool, len(s.CompletedIndices))
	for idx, done := range s.CompletedIndices {
		c.CompletedIndices[idx] = done
	}
	return &c
}

type passageSessionJSON struct {
	StudentID            string    `json:"studentId"`
	PassageID            string    `json:"passageId"`
	CurrentSentenceIndex int       `json:"currentSentenceIndex"`
	CompletedIndices     []int     `json:"completedIndices"`
	SentenceCount        int       `json:"sentenceCount"`
	ProgressPercent      int       `json:"progressPercent"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// MarshalJSON writes the completed set as a sorted list
func (s PassageSession) MarshalJSON() ([]byte, error) {
	return json.Marshal(passageSessionJSON{
		StudentID:            s.StudentID,
		PassageID:            s.PassageID,
		CurrentSentenceIndex: s.CurrentSentenceIndex,
		CompletedIndices:     s.Completed(),
		SentenceCount:        s.SentenceCount,
		ProgressPercent:      s.ProgressPercent(),
		UpdatedAt:            s.UpdatedAt,
	})
}

// UnmarshalJSON reads the form written by MarshalJSON
func (s *PassageSession) UnmarshalJSON(data []byte) error {
	var raw passageSessionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = PassageSession{
		StudentID:            raw.StudentID,
		PassageID:            raw.PassageID,
		CurrentSentenceIndex: raw.CurrentSentenceIndex,
		CompletedIndices:     make(map[int]bool, len(raw.CompletedIndices)),
		SentenceCount:        raw.SentenceCount,
		UpdatedAt:            raw.UpdatedAt,
	}
	for _, idx := range raw.CompletedIndices {
		s.CompletedIndices[idx] = true
	}
	return nil
}
