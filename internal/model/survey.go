package model

import "time"

// Survey is the definition the engine reads: ordered questions with their
// logic rules. Editing happens in the authoring product; during response
// collection the engine treats this as read-only.
type Survey struct {
	ID        string     `json:"id" bson:"_id,omitempty"`
	Title     string     `json:"title" bson:"title" validate:"required"`
	Questions []Question `json:"questions" bson:"questions" validate:"dive"`
	IsOpen    bool       `json:"isOpen" bson:"isOpen"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// QuestionOrder returns question IDs in survey order
func (s *Survey) QuestionOrder() []string {
	order := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		order[i] = q.ID
	}
	return order
}

// QuestionByID returns the question with the given ID, or nil
func (s *Survey) QuestionByID(id string) *Question {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i]
		}
	}
	return nil
}
