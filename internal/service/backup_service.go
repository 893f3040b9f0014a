package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"chunkreading/internal/database"
	"chunkreading/internal/models"
	"chunkreading/internal/repository"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string                    `json:"version"`
	ExportedAt   time.Time                 `json:"exported_at"`
	DatabaseType string                    `json:"database_type"`
	Passages     []models.Passage          `json:"passages"`
	Scores       []models.StoredScore      `json:"scores"`
	Sessions     []models.PassageSession   `json:"sessions"`
	Analyses     []models.SentenceAnalysis `json:"analyses"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter writes a complete backup as indented JSON
func (s *BackupService) ExportToWriter(w io.Writer) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:      "1.0",
		ExportedAt:   time.Now().UTC(),
		DatabaseType: "universal",
	}

	var err error
	if backup.Passages, err = repository.NewPassageRepository(s.db).ListPassages(); err != nil {
		return fmt.Errorf("failed to export passages: %w", err)
	}
	progress := repository.NewProgressRepository(s.db)
	if backup.Scores, err = progress.ListAllScores(); err != nil {
		return fmt.Errorf("failed to export scores: %w", err)
	}
	if backup.Sessions, err = progress.ListAllSessions(); err != nil {
		return fmt.Errorf("failed to export sessions: %w", err)
	}
	if backup.Analyses, err = repository.NewAnalysisRepository(s.db).ListAllAnalyses(); err != nil {
		return fmt.Errorf("failed to export analyses: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d passages, %d scores, %d sessions, %d analyses",
		len(backup.Passages), len(backup.Scores), len(backup.Sessions), len(backup.Analyses))
	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a backup in a single transaction. Existing
// passages are replaced and progress rows are upserted.
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	err := s.db.WithTx(func(tx *database.Tx) error {
		passages := repository.NewPassageRepository(tx)
		progress := repository.NewProgressRepository(tx)
		analyses := repository.NewAnalysisRepository(tx)

		// Import in order of dependencies
		for i := range backup.Passages {
			p := &backup.Passages[i]
			found, err := passages.UpdatePassage(p)
			if err != nil {
				return fmt.Errorf("failed to import passage %s: %w", p.ID, err)
			}
			if !found {
				if err := passages.CreatePassage(p); err != nil {
					return fmt.Errorf("failed to import passage %s: %w", p.ID, err)
				}
			}
		}

		for _, sc := range backup.Scores {
			if err := progress.SaveSentenceScore(sc.StudentID, sc.PassageID, sc.SentenceIndex, sc.Score); err != nil {
				return fmt.Errorf("failed to import score: %w", err)
			}
		}

		for i := range backup.Sessions {
			if err := progress.SaveSession(&backup.Sessions[i]); err != nil {
				return fmt.Errorf("failed to import session: %w", err)
			}
		}

		for i := range backup.Analyses {
			if err := analyses.SaveAnalysis(&backup.Analyses[i]); err != nil {
				return fmt.Errorf("failed to import analysis: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Database import completed successfully: %d passages, %d scores, %d sessions, %d analyses",
		len(backup.Passages), len(backup.Scores), len(backup.Sessions), len(backup.Analyses))
	return nil
}

// ClearTables deletes every passage and all progress, children first
func (s *BackupService) ClearTables() error {
	tables := []string{
		"sentence_analyses",
		"passage_sessions",
		"sentence_scores",
		"passages",
	}

	return s.db.WithTx(func(tx *database.Tx) error {
		for _, table := range tables {
			if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			log.Printf("Cleared table: %s", table)
		}
		return nil
	})
}
