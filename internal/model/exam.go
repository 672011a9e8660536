package model

import "time"

// Exam is a published set of questions students unlock with ExamKey
type Exam struct {
	ID                string     `json:"_id" bson:"_id,omitempty"`
	Title             string     `json:"title" bson:"title"`
	ExamKey           string     `json:"examKey" bson:"examKey"`
	Duration          int        `json:"duration" bson:"duration"` // minutes
	PassingMarks      float64    `json:"passingMarks" bson:"passingMarks"`
	CreatedBy         string     `json:"createdBy" bson:"createdBy"`
	Questions         []Question `json:"questions" bson:"questions"`
	IsActive          bool       `json:"isActive" bson:"isActive"`
	ProctoringEnabled bool       `json:"proctoringEnabled" bson:"proctoringEnabled"`
	CreatedAt         time.Time  `json:"createdAt" bson:"createdAt"`
}

// ExamInput is the request body for creating or updating an exam
type ExamInput struct {
	Title             string     `json:"title"`
	Duration          int        `json:"duration"`
	PassingMarks      float64    `json:"passingMarks"`
	Questions         []Question `json:"questions"`
	ProctoringEnabled *bool      `json:"proctoringEnabled"`
}

// TotalWeight is the highest score the exam can award
func (e *Exam) TotalWeight() int {
	total := 0
	for _, q := range e.Questions {
		total += q.Weight()
	}
	return total
}

// ForStudent returns a copy safe to send to an exam taker
func (e *Exam) ForStudent() *Exam {
	out := *e
	out.Questions = make([]Question, len(e.Questions))
	for i, q := range e.Questions {
		out.Questions[i] = q.forStudent()
	}
	return &out
}

// ExamRef is the populated exam shown in result history
type ExamRef struct {
	ID        string     `json:"_id"`
	Title     string     `json:"title"`
	Duration  int        `json:"duration"`
	Questions []Question `json:"questions"`
}
