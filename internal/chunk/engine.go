package chunk

import (
	"sort"

	"chunkreading/internal/validation"
)

// Mode is the engine state: Idle, or Marking with an active marking type
type Mode int

const (
	Idle Mode = iota
	Marking
)

func (m Mode) String() string {
	if m == Marking {
		return "marking"
	}
	return "idle"
}

// clausePalette is cycled through to colour clause highlights
var clausePalette = []string{
	"#fde68a", "#bfdbfe", "#bbf7d0", "#fbcfe8", "#ddd6fe", "#fed7aa",
}

// Option configures an Engine
type Option func(*Engine)

// WithIDGenerator replaces the group ID generator
func WithIDGenerator(next func() string) Option {
	return func(e *Engine) {
		e.newID = next
	}
}

// WithClauseColors replaces the clause highlight colour generator
func WithClauseColors(next func() string) Option {
	return func(e *Engine) {
		e.nextColor = next
	}
}

// Engine holds the annotation state of one sentence: its tokens, the
// committed groups, the pending selection and the active marking type.
//
// An Engine is owned by a single learner and is not safe for concurrent use.
type Engine struct {
	sentence  string
	tokens    []Token
	groups    []WordGroup
	selection map[int]struct{}
	active    MarkingType

	newID     func() string
	nextColor func() string
}

// NewEngine tokenizes sentence and returns an Idle engine with no groups
func NewEngine(sentence string, opts ...Option) *Engine {
	e := &Engine{
		sentence:  sentence,
		tokens:    Tokenize(sentence),
		selection: make(map[int]struct{}),
		newID:     NewGroupID,
	}
	colorIdx := 0
	e.nextColor = func() string {
		c := clausePalette[colorIdx%len(clausePalette)]
		colorIdx++
		return c
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sentence returns the raw sentence text
func (e *Engine) Sentence() string {
	return e.sentence
}

// Tokens returns the sentence tokens
func (e *Engine) Tokens() []Token {
	out := make([]Token, len(e.tokens))
	copy(out, e.tokens)
	return out
}

// Groups returns a copy of the committed groups in insertion order
func (e *Engine) Groups() []WordGroup {
	return cloneGroups(e.groups)
}

// Selection returns the pending selection in ascending order
func (e *Engine) Selection() []int {
	out := make([]int, 0, len(e.selection))
	for idx := range e.selection {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Mode returns Idle or Marking
func (e *Engine) Mode() Mode {
	if e.active == "" {
		return Idle
	}
	return Marking
}

// ActiveMarkingType returns the active type and whether one is set
func (e *Engine) ActiveMarkingType() (MarkingType, bool) {
	return e.active, e.active != ""
}

// SelectMarkingType enters Marking(t). A non-empty pending selection is
// committed as a group of the previously active type first, even when t is
// that same type.
func (e *Engine) SelectMarkingType(t MarkingType) {
	if !t.Valid() {
		return
	}
	if e.active != "" && len(e.selection) > 0 {
		e.commit()
	}
	e.active = t
	e.selection = make(map[int]struct{})
}

// ToggleToken flips membership of index in the pending selection. It does
// nothing while Idle or for indices outside the sentence.
func (e *Engine) ToggleToken(index int) {
	if e.active == "" || index < 0 || index >= len(e.tokens) {
		return
	}
	if _, ok := e.selection[index]; ok {
		delete(e.selection, index)
		return
	}
	e.selection[index] = struct{}{}
}

// ApplyMarking commits the pending selection as a group of the active type
// and returns to Idle. Without an active type or selection it returns a
// ValidationError and leaves the state unchanged.
func (e *Engine) ApplyMarking() (WordGroup, error) {
	if e.active == "" {
		return WordGroup{}, validation.ValidationError{Field: "type", Message: "choose a marking type first"}
	}
	if len(e.selection) == 0 {
		return WordGroup{}, validation.ValidationError{Field: "selection", Message: "select at least one word"}
	}
	g, err := e.commit()
	if err != nil {
		return WordGroup{}, err
	}
	e.active = ""
	return g, nil
}

// ClearSelection drops the pending selection without committing and returns
// to Idle
func (e *Engine) ClearSelection() {
	e.selection = make(map[int]struct{})
	e.active = ""
}

// UndoLastMarking removes the most recently committed group, if any
func (e *Engine) UndoLastMarking() (WordGroup, bool) {
	if len(e.groups) == 0 {
		return WordGroup{}, false
	}
	last := e.groups[len(e.groups)-1]
	e.groups = e.groups[:len(e.groups)-1]
	return last, true
}

// LoadGroups replaces the committed groups with a previously saved analysis.
// Groups that do not fit this sentence are dropped; the number kept is
// returned.
func (e *Engine) LoadGroups(groups []WordGroup) int {
	kept := make([]WordGroup, 0, len(groups))
	for _, g := range cloneGroups(groups) {
		if !g.withinBounds(len(e.tokens)) {
			continue
		}
		if g.ID == "" {
			g.ID = e.newID()
		}
		if g.Type != Clause {
			g.Color = ""
		}
		kept = append(kept, g)
	}
	e.groups = kept
	e.selection = make(map[int]struct{})
	e.active = ""
	return len(kept)
}

// commit appends the pending selection as a group of the active type and
// clears the selection
func (e *Engine) commit() (WordGroup, error) {
	color := ""
	if e.active == Clause {
		color = e.nextColor()
	}
	g, err := NewWordGroup(e.newID(), e.active, e.Selection(), color)
	if err != nil {
		return WordGroup{}, err
	}
	e.groups = append(e.groups, g)
	e.selection = make(map[int]struct{})
	return g, nil
}

func (e *Engine) selected(index int) bool {
	_, ok := e.selection[index]
	return ok
}
