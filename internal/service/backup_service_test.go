package service

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"chunkreading/internal/chunk"
	"chunkreading/internal/database"
	"chunkreading/internal/models"
	"chunkreading/internal/repository"
)

func openBackupDB(t *testing.T, name string) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), name))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestBackupRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	source := openBackupDB(t, "source.db")
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	passage := &models.Passage{
		ID: "p1", Title: "Backup", RawText: "A. B.", Sentences: []string{"A.", "B."},
		Difficulty: models.DifficultyEasy, CreatedAt: now, UpdatedAt: now,
	}
	if err := repository.NewPassageRepository(source).CreatePassage(passage); err != nil {
		t.Fatalf("CreatePassage() unexpected error: %v", err)
	}
	progress := repository.NewProgressRepository(source)
	progress.SaveSentenceScore("s1", "p1", 0, models.SentenceScore{
		StructuralScore: models.IntPtr(90), TranslationScore: models.IntPtr(80),
	})
	session := models.NewPassageSession("s1", "p1", 2)
	session.MarkComplete(0)
	session.Advance()
	progress.SaveSession(session)
	repository.NewAnalysisRepository(source).SaveAnalysis(&models.SentenceAnalysis{
		StudentID: "s1", PassageID: "p1", SentenceIndex: 0, Translation: "번역", Completed: true,
		Groups: []chunk.WordGroup{{ID: "g1", Type: chunk.Verb, TokenIndices: []int{0}}},
	})

	var buf bytes.Buffer
	if err := NewBackupService(source).ExportToWriter(&buf); err != nil {
		t.Fatalf("ExportToWriter() unexpected error: %v", err)
	}

	target := openBackupDB(t, "target.db")
	backup := NewBackupService(target)
	for i := 0; i < 2; i++ {
		if err := backup.ImportFromReader(bytes.NewReader(buf.Bytes())); err != nil {
			t.Fatalf("ImportFromReader() pass %d unexpected error: %v", i, err)
		}
	}

	got, _ := repository.NewPassageRepository(target).GetPassage("p1")
	if got == nil || len(got.Sentences) != 2 {
		t.Fatalf("imported passage = %+v", got)
	}
	restored, _ := repository.NewProgressRepository(target).GetSession("s1", "p1")
	if restored == nil || restored.CurrentSentenceIndex != 1 || !restored.IsCompleted(0) {
		t.Errorf("imported session = %+v", restored)
	}
	passed, _ := repository.NewProgressRepository(target).PassedIndices("s1", "p1")
	if len(passed) != 1 || passed[0] != 0 {
		t.Errorf("PassedIndices() = %v, want [0]", passed)
	}
	a, _ := repository.NewAnalysisRepository(target).GetAnalysis("s1", "p1", 0)
	if a == nil || len(a.Groups) != 1 {
		t.Errorf("imported analysis = %+v", a)
	}

	if err := backup.ClearTables(); err != nil {
		t.Fatalf("ClearTables() unexpected error: %v", err)
	}
	if got, _ := repository.NewPassageRepository(target).GetPassage("p1"); got != nil {
		t.Error("passage survived ClearTables()")
	}
}
