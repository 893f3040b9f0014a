package service

import (
	"context"
	"sort"
	"sync"

	"chunkreading/internal/models"
	"chunkreading/internal/scoring"
)

type memoryPassages struct {
	mu       sync.Mutex
	passages map[string]*models.Passage
	order    []string
	replaced []string
}

func newMemoryPassages(passages ...*models.Passage) *memoryPassages {
	m := &memoryPassages{passages: make(map[string]*models.Passage)}
	for _, p := range passages {
		m.CreatePassage(p)
	}
	return m
}

func (m *memoryPassages) CreatePassage(p *models.Passage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.passages[p.ID] = &cp
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memoryPassages) GetPassage(id string) (*models.Passage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.passages[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.Sentences = append([]string(nil), p.Sentences...)
	return &cp, nil
}

func (m *memoryPassages) ListPassages() ([]models.Passage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Passage
	for _, id := range m.order {
		if p, ok := m.passages[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memoryPassages) UpdatePassage(p *models.Passage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.passages[p.ID]; !ok {
		return false, nil
	}
	cp := *p
	m.passages[p.ID] = &cp
	return true, nil
}

func (m *memoryPassages) ReplaceSentences(p *models.Passage) (bool, error) {
	found, err := m.UpdatePassage(p)
	if found {
		m.mu.Lock()
		m.replaced = append(m.replaced, p.ID)
		m.mu.Unlock()
	}
	return found, err
}

func (m *memoryPassages) DeletePassage(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.passages[id]; !ok {
		return false, nil
	}
	delete(m.passages, id)
	return true, nil
}

type progressKey struct {
	student string
	passage string
	index   int
}

type memoryProgress struct {
	mu       sync.Mutex
	scores   map[progressKey]models.SentenceScore
	sessions map[sessionKey]*models.PassageSession
	saves    int
}

func newMemoryProgress() *memoryProgress {
	return &memoryProgress{
		scores:   make(map[progressKey]models.SentenceScore),
		sessions: make(map[sessionKey]*models.PassageSession),
	}
}

func (m *memoryProgress) SaveSentenceScore(studentID, passageID string, index int, score models.SentenceScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[progressKey{studentID, passageID, index}] = score
	return nil
}

func (m *memoryProgress) GetScores(studentID, passageID string) ([]models.StoredScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StoredScore
	for k, s := range m.scores {
		if k.student == studentID && k.passage == passageID {
			out = append(out, models.StoredScore{
				StudentID:     studentID,
				PassageID:     passageID,
				SentenceIndex: k.index,
				Score:         s,
				Passed:        s.Passed(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentenceIndex < out[j].SentenceIndex })
	return out, nil
}

func (m *memoryProgress) PassedIndices(studentID, passageID string) ([]int, error) {
	scores, _ := m.GetScores(studentID, passageID)
	var out []int
	for _, s := range scores {
		if s.Passed {
			out = append(out, s.SentenceIndex)
		}
	}
	return out, nil
}

func (m *memoryProgress) GetSession(studentID, passageID string) (*models.PassageSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionKey{studentID, passageID}]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (m *memoryProgress) SaveSession(s *models.PassageSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionKey{s.StudentID, s.PassageID}] = s.Clone()
	m.saves++
	return nil
}

func (m *memoryProgress) score(studentID, passageID string, index int) (models.SentenceScore, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scores[progressKey{studentID, passageID, index}]
	return s, ok
}

type memoryAnalyses struct {
	mu       sync.Mutex
	analyses map[progressKey]models.SentenceAnalysis
}

func newMemoryAnalyses() *memoryAnalyses {
	return &memoryAnalyses{analyses: make(map[progressKey]models.SentenceAnalysis)}
}

func (m *memoryAnalyses) SaveAnalysis(a *models.SentenceAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses[progressKey{a.StudentID, a.PassageID, a.SentenceIndex}] = *a
	return nil
}

func (m *memoryAnalyses) GetAnalysis(studentID, passageID string, index int) (*models.SentenceAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.analyses[progressKey{studentID, passageID, index}]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// fakeScorer returns fixed grades. A nil grade makes that track unavailable.
// When gate is set, grading blocks until it is closed.
type fakeScorer struct {
	structure   *models.StructureGrade
	translation *models.TranslationGrade
	sentences   []string
	splitErr    error
	gate        chan struct{}
	started     chan struct{}
}

func passingScorer() *fakeScorer {
	return &fakeScorer{
		structure:   &models.StructureGrade{Score: 90, Feedback: "good", CorrectMarkings: []string{}, Suggestions: []string{}},
		translation: &models.TranslationGrade{Score: 85, Feedback: "natural"},
	}
}

func (f *fakeScorer) wait(ctx context.Context) error {
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeScorer) SplitSentences(ctx context.Context, passage string) ([]string, error) {
	if f.splitErr != nil {
		return nil, f.splitErr
	}
	return f.sentences, nil
}

func (f *fakeScorer) GradeStructure(ctx context.Context, sentence, markingDescription string) (*models.StructureGrade, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.structure == nil {
		return nil, scoring.ErrUnavailable
	}
	g := *f.structure
	return &g, nil
}

func (f *fakeScorer) GradeTranslation(ctx context.Context, original, translation string) (*models.TranslationGrade, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.translation == nil {
		return nil, scoring.ErrUnavailable
	}
	g := *f.translation
	return &g, nil
}

func (f *fakeScorer) Translate(ctx context.Context, sentence string) (*models.ModelTranslation, error) {
	return &models.ModelTranslation{Translation: "번역: " + sentence, Backbone: sentence}, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	stats []*models.Statistics
}

func (r *recordingNotifier) SendPassageCompleted(ctx context.Context, studentID string, passage *models.Passage, stats *models.Statistics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, studentID+"/"+passage.ID)
	r.stats = append(r.stats, stats)
	return nil
}
