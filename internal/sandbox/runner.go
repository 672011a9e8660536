// Package sandbox runs submitted source code in a separate interpreter process.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"proctorexam/internal/model"
)

const (
	DefaultTimeout = 3 * time.Second

	// executionError is reported when a failed run wrote nothing to stderr
	executionError = "Execution Error"
)

// CodeRunner executes code against one stdin. Implementations must never
// panic or block past their time limit; every failure is reported through
// the returned RunResult.
type CodeRunner interface {
	Run(ctx context.Context, code, stdin string) model.RunResult
}

// ProcessRunner spawns `Command Args... code` for every call
type ProcessRunner struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// NewProcessRunner creates a runner for the given interpreter, e.g. ("python3", ["-c"])
func NewProcessRunner(command string, args []string, timeout time.Duration) *ProcessRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ProcessRunner{
		Command: command,
		Args:    args,
		Timeout: timeout,
	}
}

func (r *ProcessRunner) Run(ctx context.Context, code, stdin string) model.RunResult {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := make([]string, 0, len(r.Args)+1)
	args = append(args, r.Args...)
	args = append(args, code)

	cmd := exec.CommandContext(runCtx, r.Command, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Grandchildren may keep the output pipes open after the kill.
	cmd.WaitDelay = 500 * time.Millisecond

	err := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return TimeLimitExceeded(timeout)
	}
	if err == nil {
		return model.RunResult{Success: true, Output: stdout.String()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out := stderr.String()
		if out == "" {
			out = executionError
		}
		return model.RunResult{Success: false, Output: out}
	}
	return model.RunResult{Success: false, Output: fmt.Sprintf("%s: %v", executionError, err)}
}

// TimeLimitExceeded is the result reported for a run killed at its deadline
func TimeLimitExceeded(timeout time.Duration) model.RunResult {
	return model.RunResult{
		Success: false,
		Output:  fmt.Sprintf("Time Limit Exceeded (%s)", timeout),
	}
}
