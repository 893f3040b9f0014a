package chunk

import (
	"fmt"
	"sort"
	"strings"

	"chunkreading/internal/validation"

	"github.com/google/uuid"
)

// MarkingType is the structural role a learner assigns to a span of tokens
type MarkingType string

const (
	Verb        MarkingType = "verb"
	Gerund      MarkingType = "gerund"
	Clause      MarkingType = "clause"
	Conjunction MarkingType = "conjunction"
	Modifier    MarkingType = "modifier"
)

// MarkingTypes lists every marking type in toolbar order
var MarkingTypes = []MarkingType{Verb, Gerund, Clause, Conjunction, Modifier}

// Valid reports whether t is one of the known marking types
func (t MarkingType) Valid() bool {
	switch t {
	case Verb, Gerund, Clause, Conjunction, Modifier:
		return true
	}
	return false
}

// ParseMarkingType converts a name such as "verb" into a MarkingType
func ParseMarkingType(s string) (MarkingType, error) {
	t := MarkingType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", validation.ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("unknown marking type %q", s),
		}
	}
	return t, nil
}

// WordGroup is a committed marking: a type over an ordered set of token
// indices of one sentence. Groups may overlap freely.
type WordGroup struct {
	ID           string      `json:"id"`
	Type         MarkingType `json:"type"`
	TokenIndices []int       `json:"tokenIndices"`
	Color        string      `json:"color,omitempty"`
}

// NewWordGroup builds a group from a selection. The selection is sorted and
// de-duplicated; an empty selection or unknown type is a ValidationError.
// Color is kept only for clause groups.
func NewWordGroup(id string, t MarkingType, selection []int, color string) (WordGroup, error) {
	if !t.Valid() {
		return WordGroup{}, validation.ValidationError{Field: "type", Message: "a marking type must be selected"}
	}
	if len(selection) == 0 {
		return WordGroup{}, validation.ValidationError{Field: "selection", Message: "select at least one word"}
	}

	indices := make([]int, len(selection))
	copy(indices, selection)
	sort.Ints(indices)

	unique := indices[:1]
	for _, idx := range indices[1:] {
		if idx != unique[len(unique)-1] {
			unique = append(unique, idx)
		}
	}

	if id == "" {
		id = NewGroupID()
	}
	if t != Clause {
		color = ""
	}

	return WordGroup{ID: id, Type: t, TokenIndices: unique, Color: color}, nil
}

// NewGroupID returns a session-unique group identifier
func NewGroupID() string {
	return "group-" + uuid.NewString()
}

// position returns the position of index within the group's indices, or -1
func (g WordGroup) position(index int) int {
	i := sort.SearchInts(g.TokenIndices, index)
	if i < len(g.TokenIndices) && g.TokenIndices[i] == index {
		return i
	}
	return -1
}

// Contains reports whether the group covers the token index
func (g WordGroup) Contains(index int) bool {
	return g.position(index) >= 0
}

// First returns the lowest token index of the group
func (g WordGroup) First() int {
	return g.TokenIndices[0]
}

// Last returns the highest token index of the group
func (g WordGroup) Last() int {
	return g.TokenIndices[len(g.TokenIndices)-1]
}

// withinBounds reports whether every index addresses one of n tokens and the
// indices are strictly increasing
func (g WordGroup) withinBounds(n int) bool {
	if len(g.TokenIndices) == 0 || !g.Type.Valid() {
		return false
	}
	prev := -1
	for _, idx := range g.TokenIndices {
		if idx <= prev || idx >= n {
			return false
		}
		prev = idx
	}
	return true
}

// DescribeGroups renders groups as "[type] words" joined in group order. It is
// the marking description sent for structural grading.
func DescribeGroups(tokens []Token, groups []WordGroup) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		words := make([]string, 0, len(g.TokenIndices))
		for _, idx := range g.TokenIndices {
			if idx >= 0 && idx < len(tokens) {
				words = append(words, tokens[idx].Text)
			}
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", g.Type, strings.Join(words, " ")))
	}
	return strings.Join(parts, ", ")
}

func cloneGroups(groups []WordGroup) []WordGroup {
	out := make([]WordGroup, len(groups))
	for i, g := range groups {
		indices := make([]int, len(g.TokenIndices))
		copy(indices, g.TokenIndices)
		g.TokenIndices = indices
		out[i] = g
	}
	return out
}
