package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"chunkreading/internal/database"
	"chunkreading/internal/models"
)

// ProgressRepository stores sentence scores and passage sessions
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// SaveSentenceScore writes the latest score of a sentence. The passed column
// is always derived from the score.
func (r *ProgressRepository) SaveSentenceScore(studentID, passageID string, index int, score models.SentenceScore) error {
	query := `
		INSERT INTO sentence_scores (student_id, passage_id, sentence_index, structural_score, translation_score, degraded, passed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)` +
		r.db.GetDialect().UpsertClause(
			[]string{"student_id", "passage_id", "sentence_index"},
			[]string{"structural_score", "translation_score", "degraded", "passed", "updated_at"},
		)

	_, err := r.db.Exec(query, studentID, passageID, index,
		nullInt(score.StructuralScore), nullInt(score.TranslationScore),
		score.Degraded, score.Passed(), now())
	if err != nil {
		return fmt.Errorf("failed to save sentence score: %w", err)
	}
	return nil
}

// GetScores returns a learner's scores for a passage ordered by sentence
func (r *ProgressRepository) GetScores(studentID, passageID string) ([]models.StoredScore, error) {
	query := `
		SELECT student_id, passage_id, sentence_index, structural_score, translation_score, degraded, passed, updated_at
		FROM sentence_scores
		WHERE student_id = ? AND passage_id = ?
		ORDER BY sentence_index
	`
	return r.queryScores(query, studentID, passageID)
}

// ListAllScores returns every stored score
func (r *ProgressRepository) ListAllScores() ([]models.StoredScore, error) {
	query := `
		SELECT student_id, passage_id, sentence_index, structural_score, translation_score, degraded, passed, updated_at
		FROM sentence_scores
		ORDER BY passage_id, student_id, sentence_index
	`
	return r.queryScores(query)
}

// PassedIndices returns the sentence indices whose latest score passed
func (r *ProgressRepository) PassedIndices(studentID, passageID string) ([]int, error) {
	query := "SELECT sentence_index FROM sentence_scores WHERE student_id = ? AND passage_id = ? AND passed = " +
		r.db.GetDialect().BoolValue(true) + " ORDER BY sentence_index"
	rows, err := r.db.Query(query, studentID, passageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query passed sentences: %w", err)
	}
	defer rows.Close()

	var indices []int
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, fmt.Errorf("failed to scan sentence index: %w", err)
		}
		indices = append(indices, idx)
	}
	return indices, rows.Err()
}

// GetSession returns the stored session, or nil when the learner has not
// opened the passage before
func (r *ProgressRepository) GetSession(studentID, passageID string) (*models.PassageSession, error) {
	query := `
		SELECT student_id, passage_id, current_sentence_index, completed_indices, sentence_count, updated_at
		FROM passage_sessions
		WHERE student_id = ? AND passage_id = ?
	`
	s, err := scanSession(r.db.QueryRow(query, studentID, passageID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// ListAllSessions returns every stored session
func (r *ProgressRepository) ListAllSessions() ([]models.PassageSession, error) {
	query := `
		SELECT student_id, passage_id, current_sentence_index, completed_indices, sentence_count, updated_at
		FROM passage_sessions
		ORDER BY passage_id, student_id
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.PassageSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// SaveSession inserts or replaces a learner's session
func (r *ProgressRepository) SaveSession(s *models.PassageSession) error {
	completed, err := json.Marshal(s.Completed())
	if err != nil {
		return fmt.Errorf("failed to encode completed sentences: %w", err)
	}

	query := `
		INSERT INTO passage_sessions (student_id, passage_id, current_sentence_index, completed_indices, sentence_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)` +
		r.db.GetDialect().UpsertClause(
			[]string{"student_id", "passage_id"},
			[]string{"current_sentence_index", "completed_indices", "sentence_count", "updated_at"},
		)

	updatedAt := s.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now()
	}
	_, err = r.db.Exec(query, s.StudentID, s.PassageID, s.CurrentSentenceIndex, string(completed), s.SentenceCount, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *ProgressRepository) queryScores(query string, args ...interface{}) ([]models.StoredScore, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var scores []models.StoredScore
	for rows.Next() {
		var s models.StoredScore
		var structural, translation sql.NullInt64
		if err := rows.Scan(
			&s.StudentID,
			&s.PassageID,
			&s.SentenceIndex,
			&structural,
			&translation,
			&s.Score.Degraded,
			&s.Passed,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		s.Score.StructuralScore = intFromNull(structural)
		s.Score.TranslationScore = intFromNull(translation)
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func scanSession(row rowScanner) (*models.PassageSession, error) {
	s := &models.PassageSession{}
	var completed string
	if err := row.Scan(
		&s.StudentID,
		&s.PassageID,
		&s.CurrentSentenceIndex,
		&completed,
		&s.SentenceCount,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var indices []int
	if err := json.Unmarshal([]byte(completed), &indices); err != nil {
		return nil, fmt.Errorf("failed to decode completed sentences: %w", err)
	}
	s.CompletedIndices = make(map[int]bool, len(indices))
	for _, idx := range indices {
		s.CompletedIndices[idx] = true
	}
	return s, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
