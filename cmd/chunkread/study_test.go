package main

import (
	"reflect"
	"testing"

	prompt "github.com/c-bata/go-prompt"
)

func TestParseIndices(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "3", want: []int{3}},
		{in: " 1  4 2 ", want: []int{1, 4, 2}},
		{in: "", wantErr: true},
		{in: "1 two", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseIndices(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseIndices(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseIndices(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCompleter(t *testing.T) {
	suggest := func(text string) []string {
		buf := prompt.NewBuffer()
		buf.InsertText(text, false, true)
		var out []string
		for _, s := range completer(*buf.Document()) {
			out = append(out, s.Text)
		}
		return out
	}

	if got := suggest("un"); !reflect.DeepEqual(got, []string{"undo"}) {
		t.Errorf("commands for 'un' = %v", got)
	}
	if got := suggest("mark c"); !reflect.DeepEqual(got, []string{"clause", "conjunction"}) {
		t.Errorf("types for 'mark c' = %v", got)
	}
	if got := suggest("tok 1"); len(got) != 0 {
		t.Errorf("suggestions for 'tok 1' = %v, want none", got)
	}
}
