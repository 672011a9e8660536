package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"proctorexam/internal/cache"
	"proctorexam/internal/model"
)

// ProctorService records violations while an attempt is in progress
type ProctorService struct {
	proctor     cache.ProctorCache
	broadcaster Broadcaster
}

// NewProctorService creates a new proctoring service
func NewProctorService(proctor cache.ProctorCache) *ProctorService {
	return &ProctorService{
		proctor:     proctor,
		broadcaster: noopBroadcaster{},
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *ProctorService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// RecordViolation appends to the attempt's log and notifies monitors.
// Attempts without an open session (never verified, or already submitted)
// are rejected.
func (s *ProctorService) RecordViolation(ctx context.Context, examID, studentID string, v model.Violation) ([]model.Violation, error) {
	v.Type = strings.TrimSpace(v.Type)
	if v.Type == "" {
		return nil, invalid("type", "is required")
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now().UTC()
	}

	appended, err := s.proctor.Append(ctx, examID, studentID, v)
	if err != nil {
		return nil, fmt.Errorf("failed to record violation: %w", err)
	}
	if !appended {
		return nil, ErrNoActiveSession
	}
	logged, err := s.proctor.List(ctx, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to read violations: %w", err)
	}

	s.broadcaster.BroadcastToExam(examID, MsgViolationRecorded, ViolationEvent{
		ExamID:    examID,
		StudentID: studentID,
		Violation: v,
		Count:     len(logged),
	})
	return logged, nil
}
