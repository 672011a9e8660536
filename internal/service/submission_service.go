package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"proctorexam/internal/cache"
	"proctorexam/internal/grading"
	"proctorexam/internal/model"
	"proctorexam/internal/repository"
)

// SubmissionService grades submitted answer sets and records the results
type SubmissionService struct {
	exams       *ExamService
	resultRepo  repository.ResultRepo
	grader      *grading.Grader
	leaderboard cache.LeaderboardCache
	proctor     cache.ProctorCache
	broadcaster Broadcaster
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(
	exams *ExamService,
	resultRepo repository.ResultRepo,
	grader *grading.Grader,
	leaderboard cache.LeaderboardCache,
	proctor cache.ProctorCache,
) *SubmissionService {
	return &SubmissionService{
		exams:       exams,
		resultRepo:  resultRepo,
		grader:      grader,
		leaderboard: leaderboard,
		proctor:     proctor,
		broadcaster: noopBroadcaster{},
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *SubmissionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Submit grades one attempt and persists exactly one Result for it. An
// unknown exam fails the request before anything is written.
func (s *SubmissionService) Submit(ctx context.Context, studentID string, req *model.SubmitRequest) (*model.Result, error) {
	exam, err := s.exams.Get(ctx, req.ExamID)
	if err != nil {
		return nil, err
	}

	// Once grading starts it runs to completion even if the client goes away.
	ctx = context.WithoutCancel(ctx)

	started := time.Now()
	outcome := s.grader.Score(ctx, exam, req.Answers)
	status := outcome.Status(exam.PassingMarks)

	live, err := s.proctor.Drain(ctx, exam.ID, studentID)
	if err != nil {
		slog.Warn("failed to read live violations", "exam_id", exam.ID, "student_id", studentID, "error", err)
	}

	answers := req.Answers
	if answers == nil {
		answers = model.AnswerSet{}
	}

	result := &model.Result{
		StudentID:          studentID,
		ExamID:             exam.ID,
		Score:              outcome.ScoreFloat(),
		TotalPossibleScore: outcome.TotalPossibleScore.InexactFloat64(),
		TotalQuestions:     len(exam.Questions),
		Status:             status,
		TimeTaken:          req.TimeTaken,
		Violations:         mergeViolations(live, req.Violations),
		VerificationPhoto:  req.VerificationPhoto,
		Answers:            answers,
		Breakdown:          outcome.Questions,
		VerificationStatus: model.VerificationPending,
	}
	if err := s.resultRepo.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to save result: %w", err)
	}

	if err := s.leaderboard.UpdateScore(ctx, exam.ID, studentID, result.Score); err != nil {
		slog.Warn("leaderboard update failed", "exam_id", exam.ID, "student_id", studentID, "error", err)
	}

	s.broadcaster.BroadcastToExam(exam.ID, MsgResultSubmitted, SubmissionEvent{
		ExamID:         exam.ID,
		StudentID:      studentID,
		ResultID:       result.ID,
		Score:          result.Score,
		TotalPossible:  result.TotalPossibleScore,
		Status:         string(result.Status),
		ViolationCount: len(result.Violations),
	})

	slog.Info("result submitted",
		"exam_id", exam.ID,
		"student_id", studentID,
		"score", result.Score,
		"total", result.TotalPossibleScore,
		"status", result.Status,
		"violations", len(result.Violations),
		"grading_ms", time.Since(started).Milliseconds(),
	)
	return result, nil
}

// mergeViolations joins the server-side log with the one the client kept,
// dropping events reported through both, in time order.
func mergeViolations(live, submitted []model.Violation) []model.Violation {
	type eventKey struct {
		kind string
		at   int64
	}

	seen := make(map[eventKey]bool, len(live)+len(submitted))
	out := make([]model.Violation, 0, len(live)+len(submitted))
	for _, batch := range [][]model.Violation{live, submitted} {
		for _, v := range batch {
			k := eventKey{v.Type, v.Timestamp.UnixMilli()}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, v)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
