package command

import (
	"context"
	"io"
	"os/exec"
	"sync/atomic"

	"nodeagent/pkg/utils/logger"

	"go.uber.org/zap"
)

// ExecRunner spawns processes on the local host with os/exec.
type ExecRunner struct{}

// NewRunner creates a runner backed by os/exec.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Start launches spec with stdin bound to the null device and both output
// streams piped. The returned process drains its pipes in the background;
// callers must observe it through Await (or Kill it) to release them.
func (r *ExecRunner) Start(ctx context.Context, spec Spec) (Process, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.SysProcAttr = sysProcAttr()

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	logger.Debug(ctx, "subprocess started", zap.String("cmd", spec.String()), zap.Int("pid", cmd.Process.Pid))

	p := &execProcess{
		cmd:    cmd,
		stdout: newOutcome[string](),
		stderr: newOutcome[string](),
		status: newOutcome[ExitStatus](),
	}
	go drain(stdoutPipe, p.stdout)
	go drain(stderrPipe, p.stderr)
	go p.reap()
	return p, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout *outcome[string]
	stderr *outcome[string]
	status *outcome[ExitStatus]
	reaped atomic.Bool
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Status(ctx context.Context) (ExitStatus, error) {
	return p.status.wait(ctx)
}

func (p *execProcess) Stdout(ctx context.Context) (string, error) {
	return p.stdout.wait(ctx)
}

func (p *execProcess) Stderr(ctx context.Context) (string, error) {
	return p.stderr.wait(ctx)
}

func (p *execProcess) Kill() error {
	// The pid may be recycled once reaped.
	if p.reaped.Load() {
		return nil
	}
	return killProcessGroup(p.cmd.Process)
}

// reap waits for both pipes to hit EOF before calling Wait, which closes
// them; calling Wait earlier would truncate the captured output.
func (p *execProcess) reap() {
	<-p.stdout.done
	<-p.stderr.done
	_ = p.cmd.Wait()
	p.reaped.Store(true)
	p.status.complete(statusFromState(p.cmd.ProcessState), nil)
}

func drain(r io.Reader, out *outcome[string]) {
	data, err := io.ReadAll(r)
	out.complete(string(data), err)
}
