package model

import "time"

type ResultStatus string

const (
	StatusPass ResultStatus = "Pass"
	StatusFail ResultStatus = "Fail"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "Pending"
	VerificationVerified VerificationStatus = "Verified"
	VerificationRejected VerificationStatus = "Rejected"
)

// Violation types reported by the proctoring client
const (
	ViolationTabSwitch      = "tab_switch"
	ViolationFaceNotVisible = "face_not_visible"
	ViolationMultipleFaces  = "multiple_faces"
)

// Violation is a proctoring event flagged during an exam session
type Violation struct {
	Type       string    `json:"type" bson:"type"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
	Screenshot string    `json:"screenshot,omitempty" bson:"screenshot,omitempty"`
}

// QuestionScore is the credit earned on one question
type QuestionScore struct {
	Index       int          `json:"index" bson:"index"`
	Type        QuestionType `json:"type" bson:"type"`
	Earned      float64      `json:"earned" bson:"earned"`
	Weight      int          `json:"weight" bson:"weight"`
	PassedCases int          `json:"passedCases,omitempty" bson:"passedCases,omitempty"`
	TotalCases  int          `json:"totalCases,omitempty" bson:"totalCases,omitempty"`
}

// Result is written once per submission and never modified afterwards
type Result struct {
	ID                 string             `json:"_id" bson:"_id,omitempty"`
	StudentID          string             `json:"studentId" bson:"studentId"`
	ExamID             string             `json:"examId" bson:"examId"`
	Score              float64            `json:"score" bson:"score"`
	TotalPossibleScore float64            `json:"totalPossibleScore" bson:"totalPossibleScore"`
	TotalQuestions     int                `json:"totalQuestions" bson:"totalQuestions"`
	Status             ResultStatus       `json:"status" bson:"status"`
	TimeTaken          int                `json:"timeTaken" bson:"timeTaken"` // seconds
	Violations         []Violation        `json:"violations" bson:"violations"`
	VerificationPhoto  string             `json:"verificationPhoto,omitempty" bson:"verificationPhoto,omitempty"`
	Answers            AnswerSet          `json:"answers" bson:"answers"`
	Breakdown          []QuestionScore    `json:"breakdown,omitempty" bson:"breakdown,omitempty"`
	VerificationStatus VerificationStatus `json:"verificationStatus" bson:"verificationStatus"`
	SubmittedAt        time.Time          `json:"submittedAt" bson:"submittedAt"`
}

// SubmitRequest is the request body for POST /api/exams/submit
type SubmitRequest struct {
	ExamID            string      `json:"examId"`
	Answers           AnswerSet   `json:"answers"`
	TimeTaken         int         `json:"timeTaken"`
	Violations        []Violation `json:"violations"`
	VerificationPhoto string      `json:"verificationPhoto"`
}

// StudentRef is the populated student shown in exam results
type StudentRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ExamResultView is a result with the student populated
type ExamResultView struct {
	Result
	Student *StudentRef `json:"studentId"`
}

// HistoryView is a result with the exam populated
type HistoryView struct {
	Result
	Exam *ExamRef `json:"examId"`
}
