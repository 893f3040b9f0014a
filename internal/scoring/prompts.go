package scoring

import "fmt"

func splitPrompt(passage string) string {
	return fmt.Sprintf(`Split the following English passage into individual sentences.
Handle complex punctuation like semicolons, dashes, and parenthetical statements.
Each sentence should be a complete grammatical unit.

Passage: %q

Return ONLY a JSON object in this format: {"sentences": ["sentence1", "sentence2", ...]}
Do not include any other text or explanation.`, passage)
}

func structurePrompt(sentence, markingDescription, language string) string {
	return fmt.Sprintf(`English sentence: %s
Student's structural marking: %s

Marking types: verb (main verbs), gerund (gerund or infinitive phrases), clause
(subordinate clauses), conjunction (coordinating conjunctions), modifier
(adjective or adverb phrases).

Grade the student's structural marking from 0 to 100 and write the feedback in %s.
Return ONLY a JSON object:
{"score": 85, "feedback": "feedback", "correctMarkings": ["what was marked well"], "suggestions": ["what to improve"]}`,
		sentence, markingDescription, language)
}

func translationPrompt(original, translation, language string) string {
	return fmt.Sprintf(`Compare the student's %[3]s translation with the English original.

Original English: %[1]q
Student Translation (%[3]s): %[2]q

Evaluate:
1. Overall accuracy (0-100)
2. Words/phrases the student misunderstood
3. What they did well
4. How to improve

Return ONLY a JSON object, with the feedback written in %[3]s:
{
  "score": 85,
  "feedback": "overall feedback",
  "misunderstoodWords": ["word1", "word2"],
  "strengths": ["strength1", "strength2"],
  "improvements": ["improvement1", "improvement2"]
}`, original, translation, language)
}

func translatePrompt(sentence, language string) string {
	return fmt.Sprintf(`Translate the following English sentence to %[2]s.
Keep modifiers (adjective/adverb phrases and clauses) in parentheses.
Also provide the sentence backbone (main structure only).

Sentence: %[1]q

Return ONLY a JSON object:
{
  "translation": "translation with (modifiers in parentheses)",
  "backbone": "main sentence structure"
}`, sentence, language)
}
