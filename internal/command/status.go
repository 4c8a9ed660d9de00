package command

import (
	"fmt"
	"os"
	"syscall"
)

// ExitStatus is the termination status of a subprocess. The zero value is
// an unknown status: the process could not be reaped and nothing is known
// about how it ended. Callers must branch on Known before reading a code.
type ExitStatus struct {
	known    bool
	signaled bool
	code     int
	signal   syscall.Signal
}

// UnknownStatus returns the status of a process that could not be reaped.
func UnknownStatus() ExitStatus {
	return ExitStatus{}
}

// ExitedStatus returns the status of a process that exited with code.
func ExitedStatus(code int) ExitStatus {
	return ExitStatus{known: true, code: code}
}

// SignaledStatus returns the status of a process terminated by sig.
func SignaledStatus(sig syscall.Signal) ExitStatus {
	return ExitStatus{known: true, signaled: true, signal: sig, code: -1}
}

// Known reports whether the process was reaped.
func (s ExitStatus) Known() bool {
	return s.known
}

// ExitCode returns the exit code when the process exited normally.
func (s ExitStatus) ExitCode() (int, bool) {
	if !s.known || s.signaled {
		return 0, false
	}
	return s.code, true
}

// Signal returns the terminating signal when the process was killed by one.
func (s ExitStatus) Signal() (syscall.Signal, bool) {
	if !s.known || !s.signaled {
		return 0, false
	}
	return s.signal, true
}

// Success reports whether the process exited normally with code 0.
func (s ExitStatus) Success() bool {
	code, ok := s.ExitCode()
	return ok && code == 0
}

func (s ExitStatus) String() string {
	switch {
	case !s.known:
		return "none"
	case s.signaled:
		return fmt.Sprintf("signaled(%s)", s.signal)
	default:
		return fmt.Sprintf("exited(%d)", s.code)
	}
}

func statusFromState(state *os.ProcessState) ExitStatus {
	if state == nil {
		return UnknownStatus()
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return SignaledStatus(ws.Signal())
	}
	if state.Exited() {
		return ExitedStatus(state.ExitCode())
	}
	return UnknownStatus()
}
