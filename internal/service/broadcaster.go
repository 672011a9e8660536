package service

import "proctorexam/internal/model"

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToExam(examID string, msgType string, payload interface{})
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastToExam(string, string, interface{}) {}

// Message types pushed to exam monitors
const (
	MsgViolationRecorded = "violation_recorded"
	MsgResultSubmitted   = "result_submitted"
)

// ViolationEvent is the payload of MsgViolationRecorded
type ViolationEvent struct {
	ExamID    string          `json:"examId"`
	StudentID string          `json:"studentId"`
	Violation model.Violation `json:"violation"`
	Count     int             `json:"count"`
}

// SubmissionEvent is the payload of MsgResultSubmitted
type SubmissionEvent struct {
	ExamID         string  `json:"examId"`
	StudentID      string  `json:"studentId"`
	ResultID       string  `json:"resultId"`
	Score          float64 `json:"score"`
	TotalPossible  float64 `json:"totalPossibleScore"`
	Status         string  `json:"status"`
	ViolationCount int     `json:"violationCount"`
}
