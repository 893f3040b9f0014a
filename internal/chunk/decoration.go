package chunk

// Boundary glyphs drawn around marked tokens
const (
	ModifierOpen     = "("
	ModifierClose    = ")"
	GerundGlyph      = "/"
	ConjunctionGlyph = "▲"
)

// Decoration describes how a single token is drawn. Style layers are
// additive; Selected and Dimmed suppress them, glyphs are always drawn.
type Decoration struct {
	Selected bool `json:"selected,omitempty"`
	Dimmed   bool `json:"dimmed,omitempty"`

	Underline     bool `json:"underline,omitempty"`
	Italic        bool `json:"italic,omitempty"`
	GerundColor   bool `json:"gerundColor,omitempty"`
	Bold          bool `json:"bold,omitempty"`
	ConjunctColor bool `json:"conjunctionColor,omitempty"`
	ModifierColor bool `json:"modifierColor,omitempty"`

	Highlight      bool   `json:"highlight,omitempty"`
	HighlightColor string `json:"highlightColor,omitempty"`
	ConnectLeft    bool   `json:"connectLeft,omitempty"`
	ConnectRight   bool   `json:"connectRight,omitempty"`

	Prefix string `json:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty"`
}

// RenderedToken pairs a token with its decoration
type RenderedToken struct {
	Token
	Decoration Decoration `json:"decoration"`
}

// Decorate resolves the decoration of the token at index
func (e *Engine) Decorate(index int, showBackbone bool) Decoration {
	return Resolve(e.groups, e.selected(index), index, showBackbone)
}

// Render decorates every token of the sentence
func (e *Engine) Render(showBackbone bool) []RenderedToken {
	out := make([]RenderedToken, len(e.tokens))
	for i, tok := range e.tokens {
		out[i] = RenderedToken{Token: tok, Decoration: e.Decorate(i, showBackbone)}
	}
	return out
}

// Resolve computes the decoration of one token from the committed groups.
// selected marks the token as part of the pending selection.
func Resolve(groups []WordGroup, selected bool, index int, showBackbone bool) Decoration {
	var d Decoration

	var inVerb, inGerund, inConjunction, inModifier bool
	var clause *WordGroup
	modifierFirst, modifierLast, gerundEdge := false, false, false

	for i := range groups {
		g := &groups[i]
		pos := g.position(index)
		if pos < 0 {
			continue
		}
		switch g.Type {
		case Verb:
			inVerb = true
		case Gerund:
			inGerund = true
			if pos == 0 || pos == len(g.TokenIndices)-1 {
				gerundEdge = true
			}
		case Conjunction:
			inConjunction = true
		case Modifier:
			inModifier = true
			if pos == 0 {
				modifierFirst = true
			}
			if pos == len(g.TokenIndices)-1 {
				modifierLast = true
			}
		case Clause:
			if clause == nil {
				clause = g
				d.ConnectLeft = pos > 0
				d.ConnectRight = pos < len(g.TokenIndices)-1
			}
		}
	}

	if modifierFirst {
		d.Prefix = ModifierOpen
	}
	if modifierLast {
		d.Suffix += ModifierClose
	}
	if gerundEdge {
		d.Suffix += GerundGlyph
	}
	if inConjunction {
		d.Suffix += ConjunctionGlyph
	}

	switch {
	case selected:
		d.Selected = true
		d.ConnectLeft, d.ConnectRight = false, false
		return d
	case showBackbone && inModifier:
		d.Dimmed = true
		d.ConnectLeft, d.ConnectRight = false, false
		return d
	}

	d.Underline = inVerb
	d.Italic = inGerund
	d.GerundColor = inGerund
	d.Bold = inConjunction
	d.ConjunctColor = inConjunction
	d.ModifierColor = inModifier
	if clause != nil {
		d.Highlight = true
		d.HighlightColor = clause.Color
	}

	return d
}
