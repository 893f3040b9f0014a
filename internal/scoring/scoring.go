// Package scoring talks to the external AI service that splits passages into
// sentences, grades structural markings and translations, and produces model
// translations.
package scoring

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strings"
	"unicode"

	"chunkreading/internal/models"
)

// ErrUnavailable is returned when the AI service cannot produce a usable
// answer: it is disabled, unreachable, or replied with malformed output.
// Callers fall back instead of failing the request.
var ErrUnavailable = errors.New("scoring service unavailable")

// Service is the AI boundary used by the grading and passage services
type Service interface {
	SplitSentences(ctx context.Context, passage string) ([]string, error)
	GradeStructure(ctx context.Context, sentence, markingDescription string) (*models.StructureGrade, error)
	GradeTranslation(ctx context.Context, original, translation string) (*models.TranslationGrade, error)
	Translate(ctx context.Context, sentence string) (*models.ModelTranslation, error)
}

// FallbackSplit splits a passage after '.', '!' or '?' when followed by
// whitespace. Pieces are trimmed and empty pieces dropped.
func FallbackSplit(passage string) []string {
	var sentences []string
	runes := []rune(passage)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		sentences = appendTrimmed(sentences, string(runes[start:i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	sentences = appendTrimmed(sentences, string(runes[start:]))

	if sentences == nil {
		return []string{}
	}
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func appendTrimmed(out []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		out = append(out, s)
	}
	return out
}

var jsonObjectRegexp = regexp.MustCompile(`\{[\s\S]*\}`)

// extractJSON returns the outermost {...} block of a model reply
func extractJSON(text string) (string, bool) {
	match := jsonObjectRegexp.FindString(text)
	return match, match != ""
}

// clampScore rounds a reply score to the nearest integer and limits it to 0-100
func clampScore(reply float64) int {
	score := int(math.Round(reply))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
