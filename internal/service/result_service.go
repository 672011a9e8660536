package service

import (
	"context"
	"fmt"

	"proctorexam/internal/cache"
	"proctorexam/internal/model"
	"proctorexam/internal/repository"
)

// ResultService serves results to admins and students
type ResultService struct {
	resultRepo  repository.ResultRepo
	userRepo    repository.UserRepo
	examRepo    repository.ExamRepo
	leaderboard cache.LeaderboardCache
}

// NewResultService creates a new result service
func NewResultService(
	resultRepo repository.ResultRepo,
	userRepo repository.UserRepo,
	examRepo repository.ExamRepo,
	leaderboard cache.LeaderboardCache,
) *ResultService {
	return &ResultService{
		resultRepo:  resultRepo,
		userRepo:    userRepo,
		examRepo:    examRepo,
		leaderboard: leaderboard,
	}
}

// ExamResults ranks an exam's results by score with student details attached
func (s *ResultService) ExamResults(ctx context.Context, examID string) ([]model.ExamResultView, error) {
	results, err := s.resultRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.StudentID)
	}
	students, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}

	views := make([]model.ExamResultView, 0, len(results))
	for _, r := range results {
		view := model.ExamResultView{Result: *r}
		if u, ok := students[r.StudentID]; ok {
			view.Student = &model.StudentRef{ID: u.ID, Name: u.Name, Email: u.Email}
		}
		views = append(views, view)
	}
	return views, nil
}

// StudentHistory lists a student's results, newest first, with exam details
func (s *ResultService) StudentHistory(ctx context.Context, studentID string) ([]model.HistoryView, error) {
	results, err := s.resultRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ExamID)
	}
	exams, err := s.examRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load exams: %w", err)
	}

	views := make([]model.HistoryView, 0, len(results))
	for _, r := range results {
		view := model.HistoryView{Result: *r}
		if e, ok := exams[r.ExamID]; ok {
			view.Exam = &model.ExamRef{ID: e.ID, Title: e.Title, Duration: e.Duration, Questions: e.Questions}
		}
		views = append(views, view)
	}
	return views, nil
}

// DeleteResult removes one result and its leaderboard entry
func (s *ResultService) DeleteResult(ctx context.Context, id string) error {
	result, err := s.resultRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	if result == nil {
		return ErrResultNotFound
	}
	return s.rebuildLeaderboard(ctx, result.ExamID)
}

// Leaderboard returns the top scores of an exam with student names
func (s *ResultService) Leaderboard(ctx context.Context, examID string, limit int) ([]cache.LeaderboardEntry, error) {
	entries, err := s.leaderboard.GetTop(ctx, examID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	// Leaderboards expire with Redis; rebuild from Mongo on a miss.
	if len(entries) == 0 {
		if err := s.rebuildLeaderboard(ctx, examID); err != nil {
			return nil, err
		}
		if entries, err = s.leaderboard.GetTop(ctx, examID, limit); err != nil {
			return nil, fmt.Errorf("failed to read leaderboard: %w", err)
		}
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.StudentID
	}
	students, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	for i := range entries {
		if u, ok := students[entries[i].StudentID]; ok {
			entries[i].Name = u.Name
		}
	}
	return entries, nil
}

// rebuildLeaderboard replaces an exam's leaderboard with stored results.
// A student with several results keeps the best one.
func (s *ResultService) rebuildLeaderboard(ctx context.Context, examID string) error {
	results, err := s.resultRepo.ListByExam(ctx, examID)
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}
	if err := s.leaderboard.Delete(ctx, examID); err != nil {
		return fmt.Errorf("failed to reset leaderboard: %w", err)
	}

	best := make(map[string]bool, len(results))
	for _, r := range results {
		if best[r.StudentID] {
			continue
		}
		best[r.StudentID] = true
		if err := s.leaderboard.UpdateScore(ctx, examID, r.StudentID, r.Score); err != nil {
			return fmt.Errorf("failed to update leaderboard: %w", err)
		}
	}
	return nil
}
