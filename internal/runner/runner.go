// Package runner abstracts local process execution behind a capability
// interface so the orchestration flow can be tested with deterministic fakes
// instead of invoking real git or test tooling.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
)

// Result holds the outcome of one command invocation. Output is the combined
// standard output and standard error of the process.
type Result struct {
	Output   string
	ExitCode int
}

// Runner executes a command with arguments in a working directory and returns
// its combined output and exit status.
//
//go:generate mockgen -destination=../mocks/mock_runner.go -package=mocks . Runner
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Result, error)
}

type execRunner struct {
	logger *slog.Logger
}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner(logger *slog.Logger) Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &execRunner{logger: logger}
}

// Run invokes the command and waits for it to finish. A non-zero exit is not
// reported as an error here; callers decide whether a given exit code is
// fatal for their step.
func (r *execRunner) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	r.logger.Debug("running command", "dir", dir, "cmd", name, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	res := Result{Output: string(out)}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		// The command could not be started at all (missing binary, bad dir).
		return res, err
	}
	return res, nil
}
