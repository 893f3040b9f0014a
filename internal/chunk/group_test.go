package chunk

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"chunkreading/internal/validation"
)

func TestNewWordGroup(t *testing.T) {
	tests := []struct {
		name      string
		typ       MarkingType
		selection []int
		color     string
		want      []int
		wantColor string
		wantErr   bool
	}{
		{
			name:      "sorts selection",
			typ:       Verb,
			selection: []int{3, 1, 2},
			want:      []int{1, 2, 3},
		},
		{
			name:      "drops duplicates",
			typ:       Modifier,
			selection: []int{4, 4, 2},
			want:      []int{2, 4},
		},
		{
			name:      "clause keeps colour",
			typ:       Clause,
			selection: []int{0},
			color:     "#fde68a",
			want:      []int{0},
			wantColor: "#fde68a",
		},
		{
			name:      "colour ignored for other types",
			typ:       Gerund,
			selection: []int{0},
			color:     "#fde68a",
			want:      []int{0},
		},
		{
			name:      "empty selection",
			typ:       Verb,
			selection: nil,
			wantErr:   true,
		},
		{
			name:      "unknown type",
			typ:       MarkingType("adverb"),
			selection: []int{1},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewWordGroup("g1", tt.typ, tt.selection, tt.color)
			if tt.wantErr {
				var ve validation.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("NewWordGroup() error = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWordGroup() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(g.TokenIndices, tt.want) {
				t.Errorf("TokenIndices = %v, want %v", g.TokenIndices, tt.want)
			}
			if g.Color != tt.wantColor {
				t.Errorf("Color = %q, want %q", g.Color, tt.wantColor)
			}
		})
	}
}

func TestNewWordGroupDoesNotAliasSelection(t *testing.T) {
	selection := []int{2, 1}
	g, err := NewWordGroup("", Verb, selection, "")
	if err != nil {
		t.Fatalf("NewWordGroup() unexpected error: %v", err)
	}
	if selection[0] != 2 {
		t.Errorf("selection was reordered in place: %v", selection)
	}
	if !strings.HasPrefix(g.ID, "group-") {
		t.Errorf("generated ID %q should have group- prefix", g.ID)
	}
}

func TestParseMarkingType(t *testing.T) {
	for _, mt := range MarkingTypes {
		got, err := ParseMarkingType(" " + strings.ToUpper(string(mt)) + " ")
		if err != nil || got != mt {
			t.Errorf("ParseMarkingType(%q) = %v, %v", mt, got, err)
		}
	}
	if _, err := ParseMarkingType("noun"); !validation.IsValidationError(err) {
		t.Errorf("ParseMarkingType(noun) error = %v, want ValidationError", err)
	}
}

func TestDescribeGroups(t *testing.T) {
	tokens := Tokenize("The small dog barked loudly")
	groups := []WordGroup{
		{ID: "a", Type: Verb, TokenIndices: []int{3}},
		{ID: "b", Type: Modifier, TokenIndices: []int{1}},
		{ID: "c", Type: Modifier, TokenIndices: []int{4}},
	}

	got := DescribeGroups(tokens, groups)
	want := "[verb] barked, [modifier] small, [modifier] loudly"
	if got != want {
		t.Errorf("DescribeGroups() = %q, want %q", got, want)
	}

	if got := DescribeGroups(tokens, nil); got != "" {
		t.Errorf("DescribeGroups(nil) = %q, want empty", got)
	}
}

func TestGroupContainsFirstLast(t *testing.T) {
	g := WordGroup{Type: Clause, TokenIndices: []int{2, 5, 7}}
	if !g.Contains(5) || g.Contains(6) {
		t.Error("Contains() mismatch")
	}
	if g.First() != 2 || g.Last() != 7 {
		t.Errorf("First/Last = %d/%d, want 2/7", g.First(), g.Last())
	}
}
