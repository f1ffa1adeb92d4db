package core

import (
	"errors"
	"fmt"
)

// ErrNothingToDo signals that the run finished without any side effect, for
// example because the head commit already carries a review marker. It is a
// neutral outcome, not a failure.
var ErrNothingToDo = errors.New("nothing to do")

// PolicyError is an expected, named rejection: the run cannot proceed for a
// policy reason (fork PR, missing test command, missing model credentials).
// The reason is posted to the pull request as a single comment and the
// process exits with a failure status.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string {
	return e.Reason
}

// NewPolicyError formats a policy rejection.
func NewPolicyError(format string, args ...any) *PolicyError {
	return &PolicyError{Reason: fmt.Sprintf(format, args...)}
}

// CommandError reports a failed external command (checkout, dependency
// install, test execution). The captured combined output is surfaced,
// truncated, in a posted comment. Command failures are never retried.
type CommandError struct {
	Step     string
	Output   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d", e.Step, e.ExitCode)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
