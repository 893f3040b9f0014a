package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"chunkreading/internal/database"
	"chunkreading/internal/models"
)

// AnalysisRepository stores learners' saved sentence analyses
type AnalysisRepository struct {
	db database.DBTX
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db database.DBTX) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// SaveAnalysis inserts or replaces the analysis of one sentence
func (r *AnalysisRepository) SaveAnalysis(a *models.SentenceAnalysis) error {
	groups, err := json.Marshal(a.Groups)
	if err != nil {
		return fmt.Errorf("failed to encode groups: %w", err)
	}

	query := `
		INSERT INTO sentence_analyses (student_id, passage_id, sentence_index, group_data, translation, completed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)` +
		r.db.GetDialect().UpsertClause(
			[]string{"student_id", "passage_id", "sentence_index"},
			[]string{"group_data", "translation", "completed", "updated_at"},
		)

	updatedAt := a.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now()
	}
	_, err = r.db.Exec(query, a.StudentID, a.PassageID, a.SentenceIndex, string(groups), a.Translation, a.Completed, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// GetAnalysis returns the saved analysis of a sentence, or nil when none
func (r *AnalysisRepository) GetAnalysis(studentID, passageID string, index int) (*models.SentenceAnalysis, error) {
	query := `
		SELECT student_id, passage_id, sentence_index, group_data, translation, completed, updated_at
		FROM sentence_analyses
		WHERE student_id = ? AND passage_id = ? AND sentence_index = ?
	`
	a, err := scanAnalysis(r.db.QueryRow(query, studentID, passageID, index))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

// ListAllAnalyses returns every saved analysis
func (r *AnalysisRepository) ListAllAnalyses() ([]models.SentenceAnalysis, error) {
	query := `
		SELECT student_id, passage_id, sentence_index, group_data, translation, completed, updated_at
		FROM sentence_analyses
		ORDER BY passage_id, student_id, sentence_index
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []models.SentenceAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, *a)
	}
	return analyses, rows.Err()
}

func scanAnalysis(row rowScanner) (*models.SentenceAnalysis, error) {
	a := &models.SentenceAnalysis{}
	var groups string
	if err := row.Scan(
		&a.StudentID,
		&a.PassageID,
		&a.SentenceIndex,
		&groups,
		&a.Translation,
		&a.Completed,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(groups), &a.Groups); err != nil {
		return nil, fmt.Errorf("failed to decode groups: %w", err)
	}
	return a, nil
}
