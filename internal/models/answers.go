package models

import "time"

// QuestionnaireAnswers is a user's single active answer set.
type QuestionnaireAnswers struct {
	UserID      string            `json:"user_id" gorm:"primaryKey"`
	Answers     map[string]string `json:"answers" gorm:"serializer:json"`
	SubmittedAt time.Time         `json:"submitted_at"`
}
