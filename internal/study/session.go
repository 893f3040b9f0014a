// Package study couples a learner's passage progression with the annotation
// engine of the sentence currently on screen.
package study

import (
	"fmt"

	"chunkreading/internal/chunk"
	"chunkreading/internal/models"
)

// Session is the live study state of one learner in one passage. It owns the
// engine of the current sentence; the engine is rebuilt whenever the current
// sentence changes, discarding any uncommitted annotation.
//
// A Session is not safe for concurrent use.
type Session struct {
	passage      *models.Passage
	progress     *models.PassageSession
	engine       *chunk.Engine
	showBackbone bool
	generation   uint64
	opts         []chunk.Option
}

// NewSession opens the passage at the progress position. The progress is
// cloned; use Progress to read the current state back.
func NewSession(passage *models.Passage, progress *models.PassageSession, opts ...chunk.Option) (*Session, error) {
	if passage.SentenceCount() == 0 {
		return nil, fmt.Errorf("passage %s has no sentences", passage.ID)
	}
	p := progress.Clone()
	p.SentenceCount = passage.SentenceCount()
	if p.CurrentSentenceIndex < 0 || p.CurrentSentenceIndex >= p.SentenceCount {
		p.CurrentSentenceIndex = 0
	}
	// The passage may have been shortened since the progress was saved
	for idx := range p.CompletedIndices {
		if idx < 0 || idx >= p.SentenceCount {
			delete(p.CompletedIndices, idx)
		}
	}

	s := &Session{passage: passage, progress: p, opts: opts}
	s.loadCurrent()
	return s, nil
}

// Passage returns the passage being studied
func (s *Session) Passage() *models.Passage {
	return s.passage
}

// Progress returns a copy of the progression state
func (s *Session) Progress() *models.PassageSession {
	return s.progress.Clone()
}

// Engine returns the annotation engine of the current sentence
func (s *Session) Engine() *chunk.Engine {
	return s.engine
}

// CurrentIndex returns the index of the sentence being annotated
func (s *Session) CurrentIndex() int {
	return s.progress.CurrentSentenceIndex
}

// Generation changes every time the engine is replaced. A result computed
// against an older generation no longer matches what the learner sees.
func (s *Session) Generation() uint64 {
	return s.generation
}

// ShowBackbone reports whether modifiers are dimmed in the rendering
func (s *Session) ShowBackbone() bool {
	return s.showBackbone
}

// ToggleBackbone flips the backbone view and returns the new value
func (s *Session) ToggleBackbone() bool {
	s.showBackbone = !s.showBackbone
	return s.showBackbone
}

// SelectSentence jumps to any sentence. Selecting the current sentence keeps
// its annotation; any other index starts from a fresh engine.
func (s *Session) SelectSentence(index int) error {
	next := s.progress.Clone()
	if err := next.SelectSentence(index); err != nil {
		return err
	}
	s.Adopt(next)
	return nil
}

// Advance moves to the next sentence. On the last sentence nothing changes.
func (s *Session) Advance() {
	next := s.progress.Clone()
	next.Advance()
	s.Adopt(next)
}

// Scored returns the progression that results from grading the sentence at
// index, without applying it. A passing score completes the sentence and, if
// it is the current one, moves on to the next.
func (s *Session) Scored(index int, score models.SentenceScore) (*models.PassageSession, bool) {
	next := s.progress.Clone()
	if !score.Passed() {
		return next, false
	}
	next.MarkComplete(index)
	if index == next.CurrentSentenceIndex {
		next.Advance()
	}
	return next, true
}

// Adopt replaces the progression state. The engine is rebuilt only when the
// current sentence changes.
func (s *Session) Adopt(progress *models.PassageSession) {
	p := progress.Clone()
	p.SentenceCount = s.passage.SentenceCount()
	moved := p.CurrentSentenceIndex != s.progress.CurrentSentenceIndex
	s.progress = p
	if moved {
		s.loadCurrent()
	}
}

// Render decorates the current sentence with the session's backbone setting
func (s *Session) Render() []chunk.RenderedToken {
	return s.engine.Render(s.showBackbone)
}

func (s *Session) loadCurrent() {
	sentence, _ := s.passage.Sentence(s.progress.CurrentSentenceIndex)
	s.engine = chunk.NewEngine(sentence, s.opts...)
	s.generation++
}
