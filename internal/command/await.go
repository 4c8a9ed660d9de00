package command

import (
	"context"
	"errors"

	appErr "nodeagent/pkg/errors"
	"nodeagent/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source names the part of a subprocess observation that failed.
type Source string

const (
	SourceStatus Source = "status"
	SourceStdout Source = "stdout"
	SourceStderr Source = "stderr"
)

const sourceDetailKey = "source"

// FailureSource returns which observation caused an Await failure.
func FailureSource(err error) (Source, bool) {
	v, ok := appErr.Detail(err, sourceDetailKey)
	if !ok {
		return "", false
	}
	src, ok := v.(Source)
	return src, ok
}

// Await observes the termination status and both output streams of proc
// concurrently and returns only after all three have settled, so a result
// never carries truncated output. Cancelling ctx kills the process
// group and the pending observations settle as discarded.
func Await(ctx context.Context, proc Process) (Result, error) {
	settled := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
		case <-settled:
			if ctx.Err() == nil {
				return
			}
		}
		if err := proc.Kill(); err != nil {
			logger.Warn(context.WithoutCancel(ctx), "kill discarded subprocess failed", zap.Int("pid", proc.Pid()), zap.Error(err))
		}
	}()

	var res Result
	var statusErr, stdoutErr, stderrErr error
	var g errgroup.Group
	g.Go(func() error {
		res.Status, statusErr = proc.Status(ctx)
		return statusErr
	})
	g.Go(func() error {
		res.Stdout, stdoutErr = proc.Stdout(ctx)
		return stdoutErr
	})
	g.Go(func() error {
		res.Stderr, stderrErr = proc.Stderr(ctx)
		return stderrErr
	})
	_ = g.Wait()
	close(settled)
	<-watcherDone

	if statusErr != nil {
		return Result{}, observationFailure(appErr.ReapFailed, "failed to obtain exit status", SourceStatus, statusErr)
	}
	if stdoutErr != nil {
		return Result{}, observationFailure(appErr.StreamReadFailed, "failed to read stdout from the subprocess", SourceStdout, stdoutErr)
	}
	if stderrErr != nil {
		return Result{}, observationFailure(appErr.StreamReadFailed, "failed to read stderr from the subprocess", SourceStderr, stderrErr)
	}
	return res, nil
}

// Run starts spec with runner and awaits its result.
func Run(ctx context.Context, runner Runner, spec Spec) (Result, error) {
	proc, err := runner.Start(ctx, spec)
	if err != nil {
		return Result{}, appErr.Wrapf(err, appErr.SpawnFailed, "failed to execute the subprocess: %v", err).
			WithDetail("cmd", spec.String())
	}
	return Await(ctx, proc)
}

func observationFailure(code appErr.ErrorCode, msg string, src Source, cause error) *appErr.Error {
	reason := cause.Error()
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		reason = "discarded"
	}
	return appErr.Wrapf(cause, code, "%s: %s", msg, reason).WithDetail(sourceDetailKey, src)
}
