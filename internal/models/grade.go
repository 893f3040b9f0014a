package models

// StructureGrade is the scorer's verdict on a learner's structural marking
type StructureGrade struct {
	Score           int      `json:"score"`
	Feedback        string   `json:"feedback"`
	CorrectMarkings []string `json:"correctMarkings"`
	Suggestions     []string `json:"suggestions"`
}

// TranslationGrade is the scorer's verdict on a learner's translation
type TranslationGrade struct {
	Score              int      `json:"score"`
	Feedback           string   `json:"feedback"`
	MisunderstoodWords []string `json:"misunderstoodWords"`
	Strengths          []string `json:"strengths"`
	Improvements       []string `json:"improvements"`
}

// ModelTranslation is a reference translation with the sentence backbone
type ModelTranslation struct {
	Translation string `json:"translation"`
	Backbone    string `json:"backbone"`
}
