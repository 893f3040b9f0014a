package models

import "math"

// SentenceStatistics is one row of the passage statistics view
type SentenceStatistics struct {
	Index            int    `json:"index"`
	Sentence         string `json:"sentence"`
	StructuralScore  *int   `json:"structuralScore"`
	TranslationScore *int   `json:"translationScore"`
	Passed           bool   `json:"passed"`
}

// Statistics summarises a learner's scores across a passage
type Statistics struct {
	PassageID          string               `json:"passageId"`
	Sentences          []SentenceStatistics `json:"sentences"`
	ScoredCount        int                  `json:"scoredCount"`
	AverageStructural  int                  `json:"averageStructural"`
	AverageTranslation int                  `json:"averageTranslation"`
	AverageOverall     int                  `json:"averageOverall"`
	ProgressPercent    int                  `json:"progressPercent"`
}

// BuildStatistics combines the passage sentences with stored scores. Averages
// cover only sentences where both tracks are scored.
func BuildStatistics(passage *Passage, scores []StoredScore, progressPercent int) *Statistics {
	byIndex := make(map[int]SentenceScore, len(scores))
	for _, s := range scores {
		byIndex[s.SentenceIndex] = s.Score
	}

	stats := &Statistics{
		PassageID:       passage.ID,
		Sentences:       make([]SentenceStatistics, len(passage.Sentences)),
		ProgressPercent: progressPercent,
	}

	var structuralSum, translationSum int
	for i, sentence := range passage.Sentences {
		score := byIndex[i]
		stats.Sentences[i] = SentenceStatistics{
			Index:            i,
			Sentence:         sentence,
			StructuralScore:  score.StructuralScore,
			TranslationScore: score.TranslationScore,
			Passed:           score.Passed(),
		}
		if score.Complete() {
			stats.ScoredCount++
			structuralSum += *score.StructuralScore
			translationSum += *score.TranslationScore
		}
	}

	if stats.ScoredCount > 0 {
		n := float64(stats.ScoredCount)
		stats.AverageStructural = int(math.Round(float64(structuralSum) / n))
		stats.AverageTranslation = int(math.Round(float64(translationSum) / n))
		stats.AverageOverall = int(math.Round(float64(structuralSum+translationSum) / (2 * n)))
	}
	return stats
}
