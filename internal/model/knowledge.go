package model

import "time"

// KnowledgeAnswer is a generic template answer for one (question, category)
// pair, elaborated by the generation service into personalized advice.
type KnowledgeAnswer struct {
	ID         string    `json:"id" yaml:"id"`
	QuestionID string    `json:"question_id" yaml:"question_id"`
	Category   string    `json:"category" yaml:"category"`
	Text       string    `json:"text" yaml:"text"`
	UpdatedAt  time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}
