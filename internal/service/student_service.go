package service

import (
	"context"
	"fmt"
	"log/slog"

	"proctorexam/internal/model"
	"proctorexam/internal/repository"
)

// StudentService handles admin management of student accounts
type StudentService struct {
	userRepo   repository.UserRepo
	resultRepo repository.ResultRepo
}

// NewStudentService creates a new student service
func NewStudentService(userRepo repository.UserRepo, resultRepo repository.ResultRepo) *StudentService {
	return &StudentService{
		userRepo:   userRepo,
		resultRepo: resultRepo,
	}
}

// ListStudents returns every student sorted by name
func (s *StudentService) ListStudents(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.ListByRole(ctx, model.RoleStudent)
}

// DeleteStudent removes a student and all of their results
func (s *StudentService) DeleteStudent(ctx context.Context, id string) error {
	student, err := s.student(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.userRepo.Delete(ctx, student.ID); err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	n, err := s.resultRepo.DeleteByStudent(ctx, student.ID)
	if err != nil {
		return fmt.Errorf("failed to delete student results: %w", err)
	}

	slog.Info("student deleted", "student_id", id, "results_deleted", n)
	return nil
}

// ToggleBlock flips a student's blocked flag and returns the new value
func (s *StudentService) ToggleBlock(ctx context.Context, id string) (bool, error) {
	student, err := s.student(ctx, id)
	if err != nil {
		return false, err
	}

	blocked := !student.IsBlocked
	if err := s.userRepo.SetBlocked(ctx, student.ID, blocked); err != nil {
		return false, fmt.Errorf("failed to update student: %w", err)
	}

	slog.Info("student block toggled", "student_id", id, "blocked", blocked)
	return blocked, nil
}

func (s *StudentService) student(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if user == nil || user.Role != model.RoleStudent {
		return nil, ErrStudentNotFound
	}
	return user, nil
}
