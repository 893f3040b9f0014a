package chunk

import "strings"

// Token represents a word of a sentence. It is identified only by its
// 0-based position in the tokenized sentence.
type Token struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Tokenize splits a sentence on runs of whitespace, preserving word order
func Tokenize(sentence string) []Token {
	fields := strings.Fields(sentence)
	tokens := make([]Token, len(fields))
	for i, f := range fields {
		tokens[i] = Token{Index: i, Text: f}
	}
	return tokens
}

// TokenTexts returns the text of each token in order
func TokenTexts(tokens []Token) []string {
	texts := make([]string, len(tokens))
	for i, tok := range tokens {
		texts[i] = tok.Text
	}
	return texts
}
