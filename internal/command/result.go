package command

import (
	"fmt"

	appErr "nodeagent/pkg/errors"
)

// Result is the decoded outcome of one subprocess invocation.
type Result struct {
	Status ExitStatus
	Stdout string
	Stderr string
}

// Diagnostic renders the status and both captured streams for error messages.
func (r Result) Diagnostic() string {
	return fmt.Sprintf("status='%s', stdout='%s', stderr='%s'", r.Status, r.Stdout, r.Stderr)
}

func (r Result) details() map[string]interface{} {
	return map[string]interface{}{
		"status": r.Status.String(),
		"stdout": r.Stdout,
		"stderr": r.Stderr,
	}
}

// UnexpectedResult reports a status the caller has no interpretation for.
func UnexpectedResult(r Result) *appErr.Error {
	return appErr.Newf(appErr.UnexpectedExitStatus, "unexpected result from the subprocess: %s", r.Diagnostic()).
		WithDetails(r.details())
}

// NotReaped reports a result whose exit status is unknown.
func NotReaped(r Result) *appErr.Error {
	return appErr.New(appErr.ReapFailed).
		WithMessage("failed to reap the subprocess").
		WithDetails(r.details())
}

// RequireSuccess fails unless the process was reaped and exited with code 0.
func RequireSuccess(r Result) error {
	if !r.Status.Known() {
		return NotReaped(r)
	}
	if !r.Status.Success() {
		return UnexpectedResult(r)
	}
	return nil
}
