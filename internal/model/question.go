package model

// QuestionType defines the type of question
type QuestionType string

const (
	QuestionTypeText        QuestionType = "TEXT"         // Free text
	QuestionTypeNumber      QuestionType = "NUMBER"       // Numeric entry
	QuestionTypeChoice      QuestionType = "CHOICE"       // Single choice
	QuestionTypeMultiChoice QuestionType = "MULTI_CHOICE" // Multiple selections
	QuestionTypeRating      QuestionType = "RATING"       // Scale/slider
)

// Option is one selectable answer option of a choice question
type Option struct {
	ID    string `json:"id" bson:"id"`
	Value string `json:"value" bson:"value"`
	Label string `json:"label,omitempty" bson:"label,omitempty"`
}

// Question belongs to one survey and is immutable during response collection
type Question struct {
	ID      string       `json:"id" bson:"id"`
	Type    QuestionType `json:"type" bson:"type"`
	Prompt  string       `json:"prompt" bson:"prompt"`
	Options []Option     `json:"options,omitempty" bson:"options,omitempty"`
	// Position is the question's place in survey order, 0-based
	Position int `json:"position" bson:"position"`
	// Rules are this question's logic rules in authoring order
	Rules []LogicRule `json:"rules,omitempty" bson:"rules,omitempty"`
}
