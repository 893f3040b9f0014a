package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"chunkreading/internal/config"
	"chunkreading/internal/database"
	"chunkreading/internal/repository"
	"chunkreading/internal/scoring"
	"chunkreading/internal/service"
)

// UI contains the output streams for the application
type UI struct {
	Out io.Writer
	Err io.Writer
}

type app struct {
	passages *service.PassageService
	study    *service.StudyService
}

func main() {
	ui := UI{Out: os.Stdout, Err: os.Stderr}

	if len(os.Args) < 2 {
		printUsage(ui.Out)
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	a := newApp(db, cfg)

	switch os.Args[1] {
	case "import":
		err = importCommand(a, os.Args[2:], ui)
	case "list":
		err = listCommand(a, ui)
	case "study":
		err = studyCommand(a, os.Args[2:], ui)
	default:
		printUsage(ui.Out)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(ui.Err, "chunkread: %v\n", err)
		os.Exit(1)
	}
}

func newApp(db *database.DB, cfg *config.Config) *app {
	passageRepo := repository.NewPassageRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)

	scorer := scoring.NewGeminiClient(scoring.GeminiConfig{
		APIKey:      cfg.GeminiAPIKey,
		Model:       cfg.GeminiModel,
		BaseURL:     cfg.AIBaseURL,
		BearerToken: cfg.AIBearerToken,
		Timeout:     cfg.AITimeout,
		Language:    cfg.FeedbackLanguage,
		Debug:       cfg.Debug,
	})

	return &app{
		passages: service.NewPassageService(passageRepo, scorer),
		study:    service.NewStudyService(passageRepo, progressRepo, analysisRepo, service.NewGradingService(scorer), scorer, nil),
	}
}

func listCommand(a *app, ui UI) error {
	summaries, err := a.passages.ListPassages()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(ui.Out, "No passages yet. Use 'chunkread import -dir <dir>' to add some.")
		return nil
	}
	for _, p := range summaries {
		fmt.Fprintf(ui.Out, "%s  %-6s  %3d sentences  %s\n", p.ID, p.Difficulty, p.SentenceCount, p.Title)
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Chunk Reading terminal tool")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  chunkread import -dir <dir> [options]   Import every .txt file in dir as a passage")
	fmt.Fprintln(w, "  chunkread list                          List passages")
	fmt.Fprintln(w, "  chunkread study -passage <id> [options] Study a passage interactively")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Import Options:")
	fmt.Fprintln(w, "  -difficulty <level>   easy, medium or hard (default: medium)")
	fmt.Fprintln(w, "  -author <id>          Recorded as the passage author")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Study Options:")
	fmt.Fprintln(w, "  -student <id>         Learner ID progress is stored under (default: local)")
	fmt.Fprintln(w, "  -color=false          Disable ANSI colours")
}
