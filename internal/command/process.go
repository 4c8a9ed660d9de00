package command

import "context"

// Process is a spawned program whose termination status and fully drained
// output streams complete independently of each other.
type Process interface {
	Pid() int
	// Status blocks until the process terminates. An unknown status with a
	// nil error means the process ended but could not be reaped.
	Status(ctx context.Context) (ExitStatus, error)
	// Stdout blocks until standard output reaches EOF.
	Stdout(ctx context.Context) (string, error)
	// Stderr blocks until standard error reaches EOF.
	Stderr(ctx context.Context) (string, error)
	// Kill terminates the process and everything it spawned. It is safe to
	// call after the process has exited.
	Kill() error
}

// Runner spawns processes.
type Runner interface {
	Start(ctx context.Context, spec Spec) (Process, error)
}

// outcome is a value that is produced exactly once and may be awaited by
// any number of readers.
type outcome[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newOutcome[T any]() *outcome[T] {
	return &outcome[T]{done: make(chan struct{})}
}

func (o *outcome[T]) complete(val T, err error) {
	o.val = val
	o.err = err
	close(o.done)
}

func (o *outcome[T]) wait(ctx context.Context) (T, error) {
	select {
	case <-o.done:
		return o.val, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
