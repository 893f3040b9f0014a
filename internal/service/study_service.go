package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"chunkreading/internal/chunk"
	"chunkreading/internal/models"
	"chunkreading/internal/scoring"
	"chunkreading/internal/study"
	"chunkreading/internal/validation"
)

// CompletionNotifier is told when a learner completes every sentence of a passage
type CompletionNotifier interface {
	SendPassageCompleted(ctx context.Context, studentID string, passage *models.Passage, stats *models.Statistics) error
}

// StudyView is the state of a learner's open study session
type StudyView struct {
	PassageID     string                 `json:"passageId"`
	Title         string                 `json:"title"`
	SentenceIndex int                    `json:"sentenceIndex"`
	SentenceCount int                    `json:"sentenceCount"`
	Sentence      string                 `json:"sentence"`
	Tokens        []chunk.RenderedToken  `json:"tokens"`
	Groups        []chunk.WordGroup      `json:"groups"`
	Selection     []int                  `json:"selection"`
	Mode          string                 `json:"mode"`
	ActiveType    chunk.MarkingType      `json:"activeType,omitempty"`
	ShowBackbone  bool                   `json:"showBackbone"`
	Progress      *models.PassageSession `json:"progress"`
}

// SubmitResult is the outcome of grading the current sentence
type SubmitResult struct {
	Grade *GradeResult `json:"grade"`
	// Discarded is set when the learner moved to another sentence or closed
	// the session while grading; nothing was saved
	Discarded bool       `json:"discarded"`
	Advanced  bool       `json:"advanced"`
	View      *StudyView `json:"view"`
}

var timeNow = func() time.Time { return time.Now().UTC() }

type sessionKey struct {
	studentID string
	passageID string
}

// StudyService keeps the live study sessions of all learners and applies
// their annotation, navigation and submission events.
//
// Every session is read and changed under mu, which serialises one learner's
// events in arrival order. Scoring calls run outside the lock.
type StudyService struct {
	mu       sync.Mutex
	sessions map[sessionKey]*study.Session

	passages PassageStore
	progress ProgressStore
	analyses AnalysisStore
	grader   *GradingService
	scorer   scoring.Service
	notifier CompletionNotifier

	engineOpts []chunk.Option
}

// NewStudyService creates a new study service. notifier may be nil.
func NewStudyService(passages PassageStore, progress ProgressStore, analyses AnalysisStore, grader *GradingService, scorer scoring.Service, notifier CompletionNotifier, opts ...chunk.Option) *StudyService {
	return &StudyService{
		sessions:   make(map[sessionKey]*study.Session),
		passages:   passages,
		progress:   progress,
		analyses:   analyses,
		grader:     grader,
		scorer:     scorer,
		notifier:   notifier,
		engineOpts: opts,
	}
}

// Open starts or resumes a learner's session on a passage. A learner who has
// never opened the passage starts on the first sentence.
func (s *StudyService) Open(studentID, passageID string) (*StudyView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey{studentID, passageID}
	if sess, ok := s.sessions[key]; ok {
		return s.view(sess), nil
	}

	passage, err := s.loadPassage(passageID)
	if err != nil {
		return nil, err
	}

	progress, err := s.progress.GetSession(studentID, passageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	fresh := progress == nil
	if fresh {
		progress = models.NewPassageSession(studentID, passageID, passage.SentenceCount())
		passed, err := s.progress.PassedIndices(studentID, passageID)
		if err != nil {
			return nil, fmt.Errorf("failed to load passed sentences: %w", err)
		}
		for _, idx := range passed {
			progress.MarkComplete(idx)
		}
	}

	sess, err := study.NewSession(passage, progress, s.engineOpts...)
	if err != nil {
		return nil, err
	}
	if fresh {
		if err := s.progress.SaveSession(sess.Progress()); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}

	s.sessions[key] = sess
	return s.view(sess), nil
}

// View returns the current state of an open session
func (s *StudyService) View(studentID, passageID string) (*StudyView, error) {
	return s.withSession(studentID, passageID, func(sess *study.Session) error { return nil })
}

// Close drops a learner's live session. Committed progress stays stored.
func (s *StudyService) Close(studentID, passageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey{studentID, passageID}
	if _, ok := s.sessions[key]; !ok {
		return ErrNoStudySession
	}
	delete(s.sessions, key)
	return nil
}

// ForgetPassage drops every live session on a passage, after its sentences
// changed or it was deleted
func (s *StudyService) ForgetPassage(passageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.sessions {
		if key.passageID == passageID {
			delete(s.sessions, key)
		}
	}
}

// SelectSentence moves to any sentence, discarding the uncommitted
// annotation of the current one
func (s *StudyService) SelectSentence(studentID, passageID string, index int) (*StudyView, error) {
	return s.withSession(studentID, passageID, func(sess *study.Session) error {
		if index == sess.CurrentIndex() {
			return nil
		}
		next := sess.Progress()
		if err := next.SelectSentence(index); err != nil {
			return err
		}
		return s.commitProgress(sess, next)
	})
}

// Advance moves to the next sentence
func (s *StudyService) Advance(studentID, passageID string) (*StudyView, error) {
	return s.withSession(studentID, passageID, func(sess *study.Session) error {
		next := sess.Progress()
		next.Advance()
		if next.CurrentSentenceIndex == sess.CurrentIndex() {
			return nil
		}
		return s.commitProgress(sess, next)
	})
}

// ToggleBackbone flips the backbone view
func (s *StudyService) ToggleBackbone(studentID, passageID string) (*StudyView, error) {
	return s.withSession(studentID, passageID, func(sess *study.Session) error {
		sess.ToggleBackbone()
		return nil
	})
}

// SelectMarkingType switches the active marking type
func (s *StudyService) SelectMarkingType(studentID, passageID, name string) (*StudyView, error) {
	t, err := chunk.ParseMarkingType(name)
	if err != nil {
		return nil, err
	}
	return s.withSession(studentID, passageID, func(sess *study.Session) error {
		sess.Engine().SelectMarkingType(t)
		return nil
	})
}

// ToggleToken flips a token in the pending selection
func (s *StudyService) ToggleToken(studentID, passageID string, index int) (*StudyView, error) {
	return s.withSession(studentID, passageID, func(sess *study.Session) error {
		sess.Engine().ToggleToken(index)
		return nil
	})
}

// ApplyMarking commits the pending selection
func (s *StudyService) ApplyMarking(studentID, passageID string) (*StudyView, error) {
	return s.withSession(studentID, passageID, func(sess *study.Session) error {
		_, err := sess.Engine().ApplyMarking()
		return err
	})
}

// ClearSelection drops the pending selection
func (s *StudyService) ClearSelection(studentID, passageID string) (*StudyView, error) {
	return s.withSession(studentID, passageID, func(sess *study.Session) error {
		sess.Engine().ClearSelection()
		return nil
	})
}

// UndoLastMarking removes the newest committed group
func (s *StudyService) UndoLastMarking(studentID, passageID string) (*StudyView, error) {
	return s.withSession(studentID, passageID, func(sess *study.Session) error {
		sess.Engine().UndoLastMarking()
		return nil
	})
}

// ReloadAnalysis replaces the current sentence's groups with the analysis
// saved on the last submission. It returns the saved translation.
func (s *StudyService) ReloadAnalysis(studentID, passageID string) (*StudyView, string, error) {
	var translation string
	view, err := s.withSession(studentID, passageID, func(sess *study.Session) error {
		a, err := s.analyses.GetAnalysis(studentID, passageID, sess.CurrentIndex())
		if err != nil {
			return fmt.Errorf("failed to load analysis: %w", err)
		}
		if a == nil {
			return ErrNotFound
		}
		sess.Engine().LoadGroups(a.Groups)
		translation = a.Translation
		return nil
	})
	return view, translation, err
}

// Submit grades the current sentence. The learner may keep navigating while
// grading runs; if the sentence on screen changed in the meantime the result
// is returned but discarded.
func (s *StudyService) Submit(ctx context.Context, studentID, passageID, translation string) (*SubmitResult, error) {
	key := sessionKey{studentID, passageID}

	s.mu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoStudySession
	}
	generation := sess.Generation()
	index := sess.CurrentIndex()
	engine := sess.Engine()
	req := GradeRequest{
		Sentence:    engine.Sentence(),
		Tokens:      engine.Tokens(),
		Groups:      engine.Groups(),
		Translation: translation,
	}
	s.mu.Unlock()

	grade, err := s.grader.Grade(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if current, ok := s.sessions[key]; !ok || current != sess || sess.Generation() != generation {
		s.mu.Unlock()
		log.Printf("Discarding stale grade: student=%s passage=%s sentence=%d", studentID, passageID, index)
		return &SubmitResult{Grade: grade, Discarded: true}, nil
	}

	wasComplete := sess.Progress().IsComplete()
	result, err := s.applyGrade(sess, index, req, grade)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	completedNow := !wasComplete && sess.Progress().IsComplete()
	passage := sess.Passage()
	s.mu.Unlock()

	if completedNow {
		s.notifyCompleted(ctx, studentID, passage)
	}
	return result, nil
}

// applyGrade persists a fresh grade and moves the session on when it passed.
// A degraded grade is reported but never stored, so an earlier AI result
// for the sentence survives. Called with mu held.
func (s *StudyService) applyGrade(sess *study.Session, index int, req GradeRequest, grade *GradeResult) (*SubmitResult, error) {
	passageID := sess.Passage().ID
	studentID := sess.Progress().StudentID

	if grade.Score.Degraded {
		log.Printf("Warning: not storing degraded grade: student=%s passage=%s sentence=%d", studentID, passageID, index)
		return &SubmitResult{Grade: grade, View: s.view(sess)}, nil
	}

	if err := s.progress.SaveSentenceScore(studentID, passageID, index, grade.Score); err != nil {
		return nil, fmt.Errorf("failed to save score: %w", err)
	}

	analysis := &models.SentenceAnalysis{
		StudentID:     studentID,
		PassageID:     passageID,
		SentenceIndex: index,
		Groups:        req.Groups,
		Translation:   req.Translation,
		Completed:     grade.Passed,
	}
	if err := s.analyses.SaveAnalysis(analysis); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	next, passed := sess.Scored(index, grade.Score)
	advanced := false
	if passed {
		advanced = next.CurrentSentenceIndex != sess.CurrentIndex()
		if err := s.commitProgress(sess, next); err != nil {
			return nil, err
		}
	}

	return &SubmitResult{Grade: grade, Advanced: advanced, View: s.view(sess)}, nil
}

// Statistics summarises a learner's scores on a passage
func (s *StudyService) Statistics(studentID, passageID string) (*models.Statistics, error) {
	passage, err := s.loadPassage(passageID)
	if err != nil {
		return nil, err
	}
	return s.statistics(studentID, passage)
}

// ModelAnswer returns the AI translation and backbone of a sentence
func (s *StudyService) ModelAnswer(ctx context.Context, passageID string, index int) (*models.ModelTranslation, error) {
	passage, err := s.loadPassage(passageID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateSentenceIndex(index, passage.SentenceCount()); err != nil {
		return nil, err
	}
	sentence, _ := passage.Sentence(index)
	return s.scorer.Translate(ctx, sentence)
}

func (s *StudyService) statistics(studentID string, passage *models.Passage) (*models.Statistics, error) {
	scores, err := s.progress.GetScores(studentID, passage.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}

	percent := 0
	s.mu.Lock()
	sess, live := s.sessions[sessionKey{studentID, passage.ID}]
	if live {
		percent = sess.Progress().ProgressPercent()
	}
	s.mu.Unlock()

	if !live {
		stored, err := s.progress.GetSession(studentID, passage.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if stored != nil {
			stored.SentenceCount = passage.SentenceCount()
			percent = stored.ProgressPercent()
		}
	}

	return models.BuildStatistics(passage, scores, percent), nil
}

func (s *StudyService) notifyCompleted(ctx context.Context, studentID string, passage *models.Passage) {
	if s.notifier == nil {
		return
	}
	stats, err := s.statistics(studentID, passage)
	if err != nil {
		log.Printf("Warning: Failed to build completion statistics: %v", err)
		return
	}
	if err := s.notifier.SendPassageCompleted(ctx, studentID, passage, stats); err != nil {
		log.Printf("Warning: Failed to send completion notification: %v", err)
	}
}

// commitProgress saves the new progression and only then swaps it into the
// session. Called with mu held.
func (s *StudyService) commitProgress(sess *study.Session, next *models.PassageSession) error {
	next.UpdatedAt = timeNow()
	if err := s.progress.SaveSession(next); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	sess.Adopt(next)
	return nil
}

// withSession runs fn on an open session under the lock and returns the
// resulting view
func (s *StudyService) withSession(studentID, passageID string, fn func(sess *study.Session) error) (*StudyView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionKey{studentID, passageID}]
	if !ok {
		return nil, ErrNoStudySession
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

func (s *StudyService) loadPassage(passageID string) (*models.Passage, error) {
	passage, err := s.passages.GetPassage(passageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load passage: %w", err)
	}
	if passage == nil {
		return nil, ErrNotFound
	}
	return passage, nil
}

func (s *StudyService) view(sess *study.Session) *StudyView {
	engine := sess.Engine()
	active, _ := engine.ActiveMarkingType()
	progress := sess.Progress()
	return &StudyView{
		PassageID:     sess.Passage().ID,
		Title:         sess.Passage().Title,
		SentenceIndex: sess.CurrentIndex(),
		SentenceCount: progress.SentenceCount,
		Sentence:      engine.Sentence(),
		Tokens:        sess.Render(),
		Groups:        engine.Groups(),
		Selection:     engine.Selection(),
		Mode:          engine.Mode().String(),
		ActiveType:    active,
		ShowBackbone:  sess.ShowBackbone(),
		Progress:      progress,
	}
}
