package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"proctorexam/internal/cache"
	"proctorexam/internal/grading"
	"proctorexam/internal/repository"
	"proctorexam/internal/sandbox"
	"proctorexam/internal/service"
	"proctorexam/internal/transport/rest"
	"proctorexam/internal/transport/ws"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", "", "HTTP listen address (default :5000, or PORT)")
	f.String("cors-origins", "", "Comma separated allowed origins, * for any")
	f.Duration("token-ttl", 0, "Lifetime of issued tokens")
	f.Duration("exam-cache-ttl", 0, "How long exams stay cached in Redis")
	f.String("sandbox-command", "", "Interpreter used to run submitted code")
	f.StringSlice("sandbox-args", nil, "Arguments passed before the source code")
	f.Duration("sandbox-timeout", 0, "Per test case execution limit")
	f.Int("sandbox-parallelism", 0, "Test cases run concurrently per coding question")
	storeFlags(f)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := repository.EnsureIndexes(ctx, st.db); err != nil {
		return err
	}

	hub := ws.NewHub()
	defer hub.Close()

	// Repositories
	userRepo := repository.NewUserRepo(st.db)
	examRepo := repository.NewExamRepo(st.db)
	resultRepo := repository.NewResultRepo(st.db)

	// Caches
	examCache := cache.NewExamCache(st.redis, cfg.ExamCacheTTL)
	leaderboard := cache.NewLeaderboardCache(st.redis)
	proctorCache := cache.NewProctorCache(st.redis)

	runner := sandbox.NewProcessRunner(cfg.Sandbox.Command, cfg.Sandbox.Args, cfg.Sandbox.Timeout)
	grader := grading.NewGrader(runner, cfg.Sandbox.Parallelism)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.AdminSecret, cfg.TokenTTL)
	examSvc := service.NewExamService(examRepo, resultRepo, examCache, leaderboard, proctorCache)
	submissionSvc := service.NewSubmissionService(examSvc, resultRepo, grader, leaderboard, proctorCache)
	resultSvc := service.NewResultService(resultRepo, userRepo, examRepo, leaderboard)
	studentSvc := service.NewStudentService(userRepo, resultRepo)
	proctorSvc := service.NewProctorService(proctorCache)
	runSvc := service.NewRunService(runner)

	submissionSvc.SetBroadcaster(hub)
	proctorSvc.SetBroadcaster(hub)

	router := rest.NewRouter(&rest.Container{
		AuthService:       authSvc,
		ExamService:       examSvc,
		SubmissionService: submissionSvc,
		ResultService:     resultSvc,
		StudentService:    studentSvc,
		ProctorService:    proctorSvc,
		RunService:        runSvc,
		WSHub:             hub,
		CORSOrigins:       cfg.CORSOrigins,
		Health: func(r *http.Request) error {
			if err := st.mongo.Ping(r.Context(), nil); err != nil {
				return fmt.Errorf("mongodb: %w", err)
			}
			if err := st.redis.Ping(r.Context()).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr, "sandbox", cfg.Sandbox.Command)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("server exited")
	return nil
}
