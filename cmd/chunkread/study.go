package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"chunkreading/internal/chunk"
	"chunkreading/internal/models"
	"chunkreading/internal/service"

	prompt "github.com/c-bata/go-prompt"
)

var commandHelp = []prompt.Suggest{
	{Text: "mark", Description: "mark <type>: start marking verb, gerund, conjunction, modifier or clause"},
	{Text: "tok", Description: "tok <i> [j ...]: toggle tokens in the selection"},
	{Text: "apply", Description: "commit the selection as a group"},
	{Text: "clear", Description: "drop the selection"},
	{Text: "undo", Description: "remove the last group"},
	{Text: "backbone", Description: "toggle the backbone view"},
	{Text: "submit", Description: "submit <translation>: grade the sentence"},
	{Text: "next", Description: "go to the next sentence"},
	{Text: "goto", Description: "goto <n>: go to a sentence"},
	{Text: "reload", Description: "restore the saved analysis of this sentence"},
	{Text: "answer", Description: "show a model translation"},
	{Text: "stats", Description: "show scores for the passage"},
	{Text: "quit", Description: "leave the session"},
}

type studyREPL struct {
	study     *service.StudyService
	studentID string
	passageID string
	renderer  *Renderer
	ui        UI
}

func studyCommand(a *app, args []string, ui UI) error {
	fs := flag.NewFlagSet("study", flag.ContinueOnError)
	fs.SetOutput(ui.Err)
	passageID := fs.String("passage", "", "Passage ID (required)")
	studentID := fs.String("student", "local", "Learner ID")
	color := fs.Bool("color", true, "Use ANSI colours")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *passageID == "" {
		return errors.New("-passage flag is required")
	}

	r := &studyREPL{
		study:     a.study,
		studentID: *studentID,
		passageID: *passageID,
		renderer:  &Renderer{HasColor: *color},
		ui:        ui,
	}
	return r.Run()
}

// Run opens the session and reads commands until quit
func (r *studyREPL) Run() error {
	view, err := r.study.Open(r.studentID, r.passageID)
	if err != nil {
		return err
	}
	defer r.study.Close(r.studentID, r.passageID)

	fmt.Fprintf(r.ui.Out, "📖 %s  (type 'quit' to leave)\n", view.Title)
	r.show(view)

	history := []string{}
	for {
		in := prompt.Input("  ✏️  ", completer,
			prompt.OptionTitle("chunkread study"),
			prompt.OptionPrefixTextColor(prompt.Yellow),
			prompt.OptionPreviewSuggestionTextColor(prompt.Blue),
			prompt.OptionSelectedSuggestionBGColor(prompt.LightGray),
			prompt.OptionSuggestionBGColor(prompt.DarkGray),
			prompt.OptionMaxSuggestion(13),
			prompt.OptionHistory(history),
		)

		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		if in == "quit" {
			return nil
		}
		history = append(history, in)

		if err := r.exec(in); err != nil {
			fmt.Fprintf(r.ui.Out, "❌ %s\n", err)
		}
	}
}

// exec runs one command line against the session
func (r *studyREPL) exec(line string) error {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	s, student, passage := r.study, r.studentID, r.passageID

	var view *service.StudyView
	var err error
	switch name {
	case "mark":
		view, err = s.SelectMarkingType(student, passage, rest)
	case "tok":
		indices, perr := parseIndices(rest)
		if perr != nil {
			return perr
		}
		for _, i := range indices {
			if view, err = s.ToggleToken(student, passage, i); err != nil {
				break
			}
		}
	case "apply":
		view, err = s.ApplyMarking(student, passage)
	case "clear":
		view, err = s.ClearSelection(student, passage)
	case "undo":
		view, err = s.UndoLastMarking(student, passage)
	case "backbone":
		view, err = s.ToggleBackbone(student, passage)
	case "next":
		view, err = s.Advance(student, passage)
	case "goto":
		n, perr := strconv.Atoi(rest)
		if perr != nil {
			return fmt.Errorf("goto needs a sentence number")
		}
		view, err = s.SelectSentence(student, passage, n-1)
	case "reload":
		var translation string
		view, translation, err = s.ReloadAnalysis(student, passage)
		if err == nil {
			fmt.Fprintf(r.ui.Out, "Saved translation: %s\n", translation)
		}
	case "submit":
		return r.submit(rest)
	case "answer":
		return r.answer()
	case "stats":
		return r.stats()
	case "help":
		for _, c := range commandHelp {
			fmt.Fprintf(r.ui.Out, "  %-9s %s\n", c.Text, c.Description)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q, try 'help'", name)
	}
	if err != nil {
		return err
	}
	r.show(view)
	return nil
}

func (r *studyREPL) submit(translation string) error {
	fmt.Fprintln(r.ui.Out, "⏳ Grading...")
	result, err := r.study.Submit(context.Background(), r.studentID, r.passageID, translation)
	if err != nil {
		return err
	}
	if result.Discarded {
		fmt.Fprintln(r.ui.Out, "The sentence changed while grading; result discarded.")
		return nil
	}

	g := result.Grade
	fmt.Fprintf(r.ui.Out, "Structure   %s  %s\n", scoreLabel(g.Score.StructuralScore), g.Structure.Feedback)
	printList(r.ui, "  ✔", g.Structure.CorrectMarkings)
	printList(r.ui, "  →", g.Structure.Suggestions)
	fmt.Fprintf(r.ui.Out, "Translation %s  %s\n", scoreLabel(g.Score.TranslationScore), g.Translation.Feedback)
	printList(r.ui, "  ?", g.Translation.MisunderstoodWords)
	printList(r.ui, "  +", g.Translation.Strengths)
	printList(r.ui, "  -", g.Translation.Improvements)

	switch {
	case g.Passed && result.Advanced:
		fmt.Fprintln(r.ui.Out, "✅ Passed! Moving on.")
	case g.Passed:
		fmt.Fprintln(r.ui.Out, "✅ Passed!")
	case g.Score.Degraded:
		fmt.Fprintln(r.ui.Out, "⚠️  Scoring was unavailable; try again later.")
	default:
		fmt.Fprintf(r.ui.Out, "Both scores need %d to pass. Try again.\n", models.PassThreshold)
	}
	r.show(result.View)
	return nil
}

func (r *studyREPL) answer() error {
	view, err := r.study.View(r.studentID, r.passageID)
	if err != nil {
		return err
	}
	answer, err := r.study.ModelAnswer(context.Background(), r.passageID, view.SentenceIndex)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.ui.Out, "Translation: %s\nBackbone:    %s\n", answer.Translation, answer.Backbone)
	return nil
}

func (r *studyREPL) stats() error {
	stats, err := r.study.Statistics(r.studentID, r.passageID)
	if err != nil {
		return err
	}
	for _, st := range stats.Sentences {
		mark := " "
		if st.Passed {
			mark = "✔"
		}
		fmt.Fprintf(r.ui.Out, "%s %2d. %s / %s  %s\n", mark, st.Index+1,
			scoreLabel(st.StructuralScore), scoreLabel(st.TranslationScore), st.Sentence)
	}
	fmt.Fprintf(r.ui.Out, "Averages: structure %d, translation %d, overall %d. Progress %d%%\n",
		stats.AverageStructural, stats.AverageTranslation, stats.AverageOverall, stats.ProgressPercent)
	return nil
}

func (r *studyREPL) show(view *service.StudyView) {
	if view == nil {
		return
	}
	fmt.Fprintf(r.ui.Out, "\nSentence %d/%d  progress %d%%", view.SentenceIndex+1, view.SentenceCount, view.Progress.ProgressPercent())
	if view.Progress.IsCompleted(view.SentenceIndex) {
		fmt.Fprint(r.ui.Out, "  ✔")
	}
	if view.ShowBackbone {
		fmt.Fprint(r.ui.Out, "  [backbone]")
	}
	fmt.Fprintln(r.ui.Out)
	fmt.Fprintf(r.ui.Out, "  %s\n", r.renderer.Sentence(view.Tokens))
	fmt.Fprintf(r.ui.Out, "  %s\n", r.renderer.Indices(view.Tokens))
	if view.Mode == chunk.Marking.String() {
		fmt.Fprintf(r.ui.Out, "  marking %s: %v\n", view.ActiveType, view.Selection)
	}
}

func completer(in prompt.Document) []prompt.Suggest {
	before := in.TextBeforeCursor()
	if before == "" {
		return []prompt.Suggest{}
	}

	if name, rest, found := strings.Cut(before, " "); found {
		if name != "mark" {
			return []prompt.Suggest{}
		}
		var s []prompt.Suggest
		for _, t := range chunk.MarkingTypes {
			s = append(s, prompt.Suggest{Text: string(t)})
		}
		return prompt.FilterHasPrefix(s, rest, true)
	}
	return prompt.FilterHasPrefix(commandHelp, before, true)
}

func parseIndices(s string) ([]int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, errors.New("tok needs at least one token number")
	}
	indices := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%q is not a token number", f)
		}
		indices = append(indices, n)
	}
	return indices, nil
}

func scoreLabel(score *int) string {
	if score == nil {
		return " --"
	}
	return fmt.Sprintf("%3d", *score)
}

func printList(ui UI, bullet string, items []string) {
	for _, item := range items {
		fmt.Fprintf(ui.Out, "%s %s\n", bullet, item)
	}
}
