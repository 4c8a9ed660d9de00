//go:build linux

package command

import (
	"context"
	"strings"
	"syscall"
	"testing"
	"time"

	appErr "nodeagent/pkg/errors"
)

func TestRunCapturesStreamsAndExitCode(t *testing.T) {
	res, err := Run(context.Background(), NewRunner(), Spec{
		Path: "/bin/sh",
		Args: []string{"-c", "echo out; echo err >&2; exit 3"},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	code, ok := res.Status.ExitCode()
	if !ok || code != 3 {
		t.Fatalf("expected exit code 3, got %s", res.Status)
	}
	if res.Stdout != "out\n" || res.Stderr != "err\n" {
		t.Fatalf("unexpected streams: %q %q", res.Stdout, res.Stderr)
	}
}

func TestRunDrainsLargeOutput(t *testing.T) {
	res, err := Run(context.Background(), NewRunner(), Spec{
		Path: "/bin/sh",
		Args: []string{"-c", "head -c 1048576 /dev/zero | tr '\\0' x"},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Stdout) != 1<<20 {
		t.Fatalf("expected 1MiB of output, got %d", len(res.Stdout))
	}
}

func TestRunStdinIsNullDevice(t *testing.T) {
	res, err := Run(context.Background(), NewRunner(), Spec{
		Path: "/bin/sh",
		Args: []string{"-c", "cat; echo done"},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Stdout != "done\n" {
		t.Fatalf("unexpected stdout: %q", res.Stdout)
	}
}

func TestRunWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(context.Background(), NewRunner(), Spec{Path: "/bin/pwd", Dir: dir})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != dir {
		t.Fatalf("expected %s, got %q", dir, res.Stdout)
	}
}

func TestRunSpawnFailure(t *testing.T) {
	_, err := Run(context.Background(), NewRunner(), Spec{Path: "/nonexistent/tool"})
	if !appErr.Is(err, appErr.SpawnFailed) {
		t.Fatalf("expected spawn failure, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "failed to execute the subprocess") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestRunSignaledStatus(t *testing.T) {
	res, err := Run(context.Background(), NewRunner(), Spec{
		Path: "/bin/sh",
		Args: []string{"-c", "kill -TERM $$"},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	sig, ok := res.Status.Signal()
	if !ok || sig != syscall.SIGTERM {
		t.Fatalf("expected SIGTERM, got %s", res.Status)
	}
	if res.Status.Success() {
		t.Fatalf("signaled process must not be a success")
	}
}

func TestRunCancelKillsProcessGroup(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Run(ctx, NewRunner(), Spec{
		Path: "/bin/sh",
		Args: []string{"-c", "sleep 30 & sleep 30; wait"},
	})
	if err == nil {
		t.Fatalf("expected cancellation failure")
	}
	if !strings.HasSuffix(err.Error(), "discarded") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("cancellation took too long: %v", elapsed)
	}
}

func TestProcessKillAfterExitIsSafe(t *testing.T) {
	proc, err := NewRunner().Start(context.Background(), Spec{Path: "/bin/true"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := Await(context.Background(), proc); err != nil {
		t.Fatalf("await failed: %v", err)
	}
	if err := proc.Kill(); err != nil {
		t.Fatalf("kill after exit: %v", err)
	}
}
