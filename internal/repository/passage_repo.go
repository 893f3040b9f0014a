package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"chunkreading/internal/database"
	"chunkreading/internal/models"
)

// PassageRepository handles database operations for passages
type PassageRepository struct {
	db database.DBTX
}

// NewPassageRepository creates a new passage repository
func NewPassageRepository(db database.DBTX) *PassageRepository {
	return &PassageRepository{db: db}
}

// CreatePassage inserts a new passage
func (r *PassageRepository) CreatePassage(p *models.Passage) error {
	sentences, err := json.Marshal(p.Sentences)
	if err != nil {
		return fmt.Errorf("failed to encode sentences: %w", err)
	}

	query := `
		INSERT INTO passages (id, title, raw_text, sentences, difficulty, source, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, p.ID, p.Title, p.RawText, string(sentences), p.Difficulty, p.Source, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create passage: %w", err)
	}
	return nil
}

// GetPassage retrieves a passage by ID. It returns nil when none exists.
func (r *PassageRepository) GetPassage(id string) (*models.Passage, error) {
	query := `
		SELECT id, title, raw_text, sentences, difficulty, source, created_by, created_at, updated_at
		FROM passages
		WHERE id = ?
	`
	p, err := scanPassage(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get passage: %w", err)
	}
	return p, nil
}

// ListPassages returns every passage, newest first
func (r *PassageRepository) ListPassages() ([]models.Passage, error) {
	query := `
		SELECT id, title, raw_text, sentences, difficulty, source, created_by, created_at, updated_at
		FROM passages
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query passages: %w", err)
	}
	defer rows.Close()

	var passages []models.Passage
	for rows.Next() {
		p, err := scanPassage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		passages = append(passages, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate passages: %w", err)
	}

	return passages, nil
}

// UpdatePassage replaces a passage's title, text, sentences and metadata.
// It reports false when no passage has the ID.
func (r *PassageRepository) UpdatePassage(p *models.Passage) (bool, error) {
	sentences, err := json.Marshal(p.Sentences)
	if err != nil {
		return false, fmt.Errorf("failed to encode sentences: %w", err)
	}

	query := `
		UPDATE passages
		SET title = ?, raw_text = ?, sentences = ?, difficulty = ?, source = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query, p.Title, p.RawText, string(sentences), p.Difficulty, p.Source, p.UpdatedAt, p.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update passage: %w", err)
	}
	return affected(result)
}

// ReplaceSentences updates a passage whose sentence list changed and clears
// the scores, sessions and analyses recorded against the old sentences, in
// one transaction. It reports false when no passage has the ID.
func (r *PassageRepository) ReplaceSentences(p *models.Passage) (bool, error) {
	var found bool
	err := r.inTx(func(q database.DBTX) error {
		var err error
		if found, err = NewPassageRepository(q).UpdatePassage(p); err != nil || !found {
			return err
		}
		return clearProgress(q, p.ID)
	})
	return found, err
}

// DeletePassage deletes a passage together with its scores, sessions and
// analyses in one transaction. It reports false when no passage has the ID.
func (r *PassageRepository) DeletePassage(id string) (bool, error) {
	var found bool
	err := r.inTx(func(q database.DBTX) error {
		if err := clearProgress(q, id); err != nil {
			return err
		}
		result, err := q.Exec("DELETE FROM passages WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete passage: %w", err)
		}
		found, err = affected(result)
		return err
	})
	return found, err
}

// txRunner is satisfied by *database.DB. A repository built on a *database.Tx
// already runs inside a transaction.
type txRunner interface {
	WithTx(fn func(tx *database.Tx) error) error
}

func (r *PassageRepository) inTx(fn func(q database.DBTX) error) error {
	if db, ok := r.db.(txRunner); ok {
		return db.WithTx(func(tx *database.Tx) error { return fn(tx) })
	}
	return fn(r.db)
}

func clearProgress(q database.DBTX, passageID string) error {
	for _, table := range []string{"sentence_scores", "passage_sessions", "sentence_analyses"} {
		if _, err := q.Exec("DELETE FROM "+table+" WHERE passage_id = ?", passageID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPassage(row rowScanner) (*models.Passage, error) {
	p := &models.Passage{}
	var sentences string
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.RawText,
		&sentences,
		&p.Difficulty,
		&p.Source,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sentences), &p.Sentences); err != nil {
		return nil, fmt.Errorf("failed to decode sentences of passage %s: %w", p.ID, err)
	}
	return p, nil
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

func now() time.Time {
	return time.Now().UTC()
}
