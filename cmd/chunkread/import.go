package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"chunkreading/internal/service"

	"github.com/gosuri/uiprogress"
)

func importCommand(a *app, args []string, ui UI) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(ui.Err)
	dir := fs.String("dir", "", "Directory of .txt passages (required)")
	difficulty := fs.String("difficulty", "", "Difficulty of every imported passage")
	author := fs.String("author", "", "Author ID recorded on every passage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		return errors.New("-dir flag is required")
	}

	files, err := passageFiles(*dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(ui.Out, "No .txt files in %s\n", *dir)
		return nil
	}

	fmt.Fprintf(ui.Out, "Importing %d passages from %s...\n", len(files), *dir)

	uiprogress.Start()
	bar := uiprogress.AddBar(len(files))
	bar.AppendCompleted()
	bar.PrependElapsed()

	count, degraded := 0, 0
	for _, path := range files {
		text, err := os.ReadFile(path)
		if err != nil {
			uiprogress.Stop()
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		result, err := a.passages.CreatePassage(context.Background(), *author, service.PassageInput{
			Title:      passageTitle(path),
			Text:       string(text),
			Difficulty: *difficulty,
			Source:     filepath.Base(path),
		})
		if err != nil {
			uiprogress.Stop()
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		if result.SplitDegraded {
			degraded++
		}
		count++
		bar.Incr()
	}
	uiprogress.Stop()

	fmt.Fprintf(ui.Out, "Successfully imported %d passages\n", count)
	if degraded > 0 {
		fmt.Fprintf(ui.Out, "%d passages were split on punctuation because the AI splitter was unavailable\n", degraded)
	}
	return nil
}

// passageFiles lists the .txt files of dir in name order
func passageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// passageTitle turns "the_old_man-and_sea.txt" into "the old man and sea"
func passageTitle(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}
