package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"proctorexam/internal/cache"
	"proctorexam/internal/keygen"
	"proctorexam/internal/model"
	"proctorexam/internal/repository"
)

// sessionGrace is added to an exam's duration when a proctoring session opens
const sessionGrace = 15 * time.Minute

// ExamService handles exam authoring and the student key check
type ExamService struct {
	examRepo    repository.ExamRepo
	resultRepo  repository.ResultRepo
	examCache   cache.ExamCache
	leaderboard cache.LeaderboardCache
	proctor     cache.ProctorCache
}

// NewExamService creates a new exam service
func NewExamService(
	examRepo repository.ExamRepo,
	resultRepo repository.ResultRepo,
	examCache cache.ExamCache,
	leaderboard cache.LeaderboardCache,
	proctor cache.ProctorCache,
) *ExamService {
	return &ExamService{
		examRepo:    examRepo,
		resultRepo:  resultRepo,
		examCache:   examCache,
		leaderboard: leaderboard,
		proctor:     proctor,
	}
}

// Create validates and stores a new exam under a fresh access key
func (s *ExamService) Create(ctx context.Context, creatorID string, input *model.ExamInput) (*model.Exam, error) {
	if err := validateExam(input); err != nil {
		return nil, err
	}

	key, err := keygen.Unique(ctx, s.examRepo.ExistsByKey)
	if err != nil {
		return nil, fmt.Errorf("failed to generate exam key: %w", err)
	}

	proctoring := true
	if input.ProctoringEnabled != nil {
		proctoring = *input.ProctoringEnabled
	}

	exam := &model.Exam{
		Title:             strings.TrimSpace(input.Title),
		ExamKey:           key,
		Duration:          input.Duration,
		PassingMarks:      input.PassingMarks,
		CreatedBy:         creatorID,
		Questions:         input.Questions,
		IsActive:          true,
		ProctoringEnabled: proctoring,
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	slog.Info("exam created", "exam_id", exam.ID, "exam_key", exam.ExamKey, "questions", len(exam.Questions))
	return exam, nil
}

// List returns the exams an admin created, newest first
func (s *ExamService) List(ctx context.Context, creatorID string) ([]*model.Exam, error) {
	return s.examRepo.ListByCreator(ctx, creatorID)
}

// Get loads an exam definition, trying the cache first
func (s *ExamService) Get(ctx context.Context, id string) (*model.Exam, error) {
	exam, err := s.examCache.Get(ctx, id)
	if err != nil {
		slog.Warn("exam cache read failed", "exam_id", id, "error", err)
	}
	if exam != nil {
		return exam, nil
	}

	exam, err = s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if exam == nil {
		return nil, ErrExamNotFound
	}

	if err := s.examCache.Set(ctx, exam); err != nil {
		slog.Warn("exam cache write failed", "exam_id", id, "error", err)
	}
	return exam, nil
}

// Update replaces the editable fields of an exam
func (s *ExamService) Update(ctx context.Context, id string, input *model.ExamInput) (*model.Exam, error) {
	if err := validateExam(input); err != nil {
		return nil, err
	}
	input.Title = strings.TrimSpace(input.Title)

	exam, err := s.examRepo.Update(ctx, id, input)
	if err != nil {
		return nil, fmt.Errorf("failed to update exam: %w", err)
	}
	if exam == nil {
		return nil, ErrExamNotFound
	}

	s.evict(ctx, id)
	return exam, nil
}

// ToggleStatus flips isActive and returns the new value
func (s *ExamService) ToggleStatus(ctx context.Context, id string) (bool, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to get exam: %w", err)
	}
	if exam == nil {
		return false, ErrExamNotFound
	}

	active := !exam.IsActive
	if err := s.examRepo.SetActive(ctx, id, active); err != nil {
		return false, fmt.Errorf("failed to update exam status: %w", err)
	}

	s.evict(ctx, id)
	return active, nil
}

// Delete removes an exam together with its results and leaderboard
func (s *ExamService) Delete(ctx context.Context, id string) error {
	deleted, err := s.examRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}
	if !deleted {
		return ErrExamNotFound
	}

	n, err := s.resultRepo.DeleteByExam(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete exam results: %w", err)
	}
	if err := s.leaderboard.Delete(ctx, id); err != nil {
		slog.Warn("leaderboard cleanup failed", "exam_id", id, "error", err)
	}
	s.evict(ctx, id)

	slog.Info("exam deleted", "exam_id", id, "results_deleted", n)
	return nil
}

// VerifyKey unlocks an active exam for a student who has not taken it yet.
// Proctored exams open a violation session lasting the exam's duration.
func (s *ExamService) VerifyKey(ctx context.Context, studentID, key string) (*model.Exam, error) {
	exam, err := s.examRepo.GetByKey(ctx, strings.ToUpper(strings.TrimSpace(key)))
	if err != nil {
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if exam == nil || !exam.IsActive {
		return nil, ErrInvalidExamKey
	}

	taken, err := s.resultRepo.ExistsForStudent(ctx, studentID, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check previous attempts: %w", err)
	}
	if taken {
		return nil, ErrExamAlreadyTaken
	}

	if exam.ProctoringEnabled {
		ttl := time.Duration(exam.Duration)*time.Minute + sessionGrace
		if err := s.proctor.Start(ctx, exam.ID, studentID, ttl); err != nil {
			return nil, fmt.Errorf("failed to start proctoring session: %w", err)
		}
	}

	return exam.ForStudent(), nil
}

func (s *ExamService) evict(ctx context.Context, id string) {
	if err := s.examCache.Delete(ctx, id); err != nil {
		slog.Warn("exam cache eviction failed", "exam_id", id, "error", err)
	}
}

func validateExam(input *model.ExamInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return invalid("title", "is required")
	}
	if input.Duration <= 0 {
		return invalid("duration", "must be a positive number of minutes")
	}
	if input.PassingMarks < 0 {
		return invalid("passingMarks", "must not be negative")
	}
	if len(input.Questions) == 0 {
		return invalid("questions", "at least one question is required")
	}

	for i, q := range input.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(q.QuestionText) == "" {
			return invalid(field, "question text is required")
		}
		if q.Weightage < 0 {
			return invalid(field, "weightage must not be negative")
		}

		switch q.Kind() {
		case model.QuestionTypeMCQ:
			if !slices.Contains(q.Options, q.CorrectAnswer) {
				return invalid(field, "correct answer must be one of the options")
			}
		case model.QuestionTypeMSQ:
			if len(q.CorrectAnswers) == 0 {
				return invalid(field, "at least one correct answer is required")
			}
			for _, a := range q.CorrectAnswers {
				if !slices.Contains(q.Options, a) {
					return invalid(field, "correct answer %q is not an option", a)
				}
			}
		case model.QuestionTypeCoding:
			if len(q.TestCases) == 0 {
				return invalid(field, "coding questions need at least one test case")
			}
		default:
			return invalid(field, "unknown question type %q", q.Type)
		}
	}
	return nil
}
