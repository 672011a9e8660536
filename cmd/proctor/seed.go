package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"proctorexam/internal/cache"
	"proctorexam/internal/model"
	"proctorexam/internal/repository"
	"proctorexam/internal/service"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create an admin account and a sample exam",
		RunE:  runSeed,
	}
	f := cmd.Flags()
	f.String("admin-name", "Exam Admin", "Name of the seeded admin")
	f.String("admin-email", "admin@example.com", "Email of the seeded admin")
	f.String("admin-password", "", "Password of the seeded admin (required)")
	storeFlags(f)
	_ = cmd.MarkFlagRequired("admin-password")
	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("admin-name")
	email, _ := cmd.Flags().GetString("admin-email")
	password, _ := cmd.Flags().GetString("admin-password")
	if len(password) < 6 {
		return fmt.Errorf("admin password must be at least 6 characters")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := repository.EnsureIndexes(ctx, st.db); err != nil {
		return err
	}

	userRepo := repository.NewUserRepo(st.db)
	admin, err := seedAdmin(ctx, userRepo, name, email, password)
	if err != nil {
		return err
	}

	examSvc := service.NewExamService(
		repository.NewExamRepo(st.db),
		repository.NewResultRepo(st.db),
		cache.NewExamCache(st.redis, cfg.ExamCacheTTL),
		cache.NewLeaderboardCache(st.redis),
		cache.NewProctorCache(st.redis),
	)
	exam, err := examSvc.Create(ctx, admin.ID, sampleExam())
	if err != nil {
		return fmt.Errorf("create sample exam: %w", err)
	}

	color.Green("Seeded admin %s (%s)", admin.Email, admin.ID)
	color.Green("Seeded exam %q with key %s", exam.Title, exam.ExamKey)
	return nil
}

// seedAdmin returns the existing account for email or creates an admin
func seedAdmin(ctx context.Context, users repository.UserRepo, name, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up admin: %w", err)
	}
	if existing != nil {
		if existing.Role != model.RoleAdmin {
			return nil, fmt.Errorf("%s is registered as %s", email, existing.Role)
		}
		slog.Info("admin already exists", "email", email)
		return existing, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	admin := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}

func sampleExam() *model.ExamInput {
	proctoring := true
	return &model.ExamInput{
		Title:             "Programming Fundamentals",
		Duration:          45,
		PassingMarks:      6,
		ProctoringEnabled: &proctoring,
		Questions: []model.Question{
			{
				QuestionText:  "Which data structure is first in, first out?",
				Type:          model.QuestionTypeMCQ,
				Options:       []string{"Stack", "Queue", "Tree", "Graph"},
				CorrectAnswer: "Queue",
				Weightage:     2,
			},
			{
				QuestionText:   "Which of these sorting algorithms run in O(n log n) in the worst case?",
				Type:           model.QuestionTypeMSQ,
				Options:        []string{"Merge sort", "Quick sort", "Heap sort", "Bubble sort"},
				CorrectAnswers: []string{"Merge sort", "Heap sort"},
				Weightage:      3,
			},
			{
				QuestionText: "Read two integers on one line and print their sum.",
				Type:         model.QuestionTypeCoding,
				Weightage:    5,
				TestCases: []model.TestCase{
					{Input: "1 2", Output: "3", IsPublic: true},
					{Input: "10 -4", Output: "6", IsPublic: true},
					{Input: "0 0", Output: "0"},
					{Input: "123456 654321", Output: "777777"},
				},
			},
		},
	}
}
