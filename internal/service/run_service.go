package service

import (
	"context"

	"proctorexam/internal/model"
	"proctorexam/internal/sandbox"
)

// RunService lets students try their code before submitting
type RunService struct {
	runner sandbox.CodeRunner
}

// NewRunService creates a new run service
func NewRunService(runner sandbox.CodeRunner) *RunService {
	return &RunService{runner: runner}
}

// RunCode executes code once with the given stdin
func (s *RunService) RunCode(ctx context.Context, req *model.RunRequest) model.RunResult {
	return s.runner.Run(ctx, req.Code, req.Input)
}
