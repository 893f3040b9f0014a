package main

import (
	"fmt"
	"strconv"
	"strings"

	"chunkreading/internal/chunk"
)

var (
	Bold      = "\033[1m"
	Faint     = "\033[2m"
	Italic    = "\033[3m"
	Underline = "\033[4m"
	Reverse   = "\033[7m"
	Green     = "\033[32m"
	Magenta   = "\033[35m"
	Teal      = "\033[36m"
	Yellow    = "\033[0;33m"
	YellowBG  = "\033[43m"
	Off       = "\033[0m"
)

// Renderer draws decorated tokens for a terminal
type Renderer struct {
	HasColor bool
}

// Sentence renders the tokens on one line. Clause highlights extend over the
// space between connected tokens.
func (r *Renderer) Sentence(tokens []chunk.RenderedToken) string {
	var b strings.Builder
	for i, tok := range tokens {
		d := tok.Decoration
		if i > 0 {
			prev := tokens[i-1].Decoration
			if r.HasColor && prev.ConnectRight && d.ConnectLeft {
				b.WriteString(background(d.HighlightColor) + " " + Off)
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(d.Prefix)
		b.WriteString(r.word(tok.Text, d))
		b.WriteString(d.Suffix)
	}
	return b.String()
}

// Indices renders token numbers aligned under the tokens of Sentence
func (r *Renderer) Indices(tokens []chunk.RenderedToken) string {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			b.WriteString(" ")
		}
		width := len([]rune(tok.Decoration.Prefix + tok.Text + tok.Decoration.Suffix))
		if !r.HasColor && tok.Decoration.Selected {
			width += 2
		}
		label := strconv.Itoa(tok.Index)
		b.WriteString(label)
		if pad := width - len(label); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func (r *Renderer) word(text string, d chunk.Decoration) string {
	if !r.HasColor {
		if d.Selected {
			return "[" + text + "]"
		}
		return text
	}
	codes := styleCodes(d)
	if codes == "" {
		return text
	}
	return codes + text + Off
}

// styleCodes maps a decoration onto ANSI escape codes. Foreground colours
// cannot be mixed, so conjunction beats gerund beats modifier.
func styleCodes(d chunk.Decoration) string {
	switch {
	case d.Selected:
		return Reverse
	case d.Dimmed:
		return Faint
	}

	var codes []string
	if d.Bold {
		codes = append(codes, Bold)
	}
	if d.Italic {
		codes = append(codes, Italic)
	}
	if d.Underline {
		codes = append(codes, Underline)
	}
	switch {
	case d.ConjunctColor:
		codes = append(codes, Magenta)
	case d.GerundColor:
		codes = append(codes, Green)
	case d.ModifierColor:
		codes = append(codes, Teal)
	}
	if d.Highlight {
		codes = append(codes, background(d.HighlightColor))
	}
	return strings.Join(codes, "")
}

// background returns a 24-bit background code for a #rrggbb colour
func background(hex string) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return YellowBG
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return YellowBG
	}
	return fmt.Sprintf("\033[48;2;%d;%d;%dm", rgb>>16&0xff, rgb>>8&0xff, rgb&0xff)
}
