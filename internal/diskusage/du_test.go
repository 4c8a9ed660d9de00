package diskusage

import (
	"context"
	"testing"

	"nodeagent/internal/command"
	appErr "nodeagent/pkg/errors"
)

func TestParseDuOutput(t *testing.T) {
	got, err := parseDuOutput("du: warning: something\n\n12\t/data/foo\n")
	if err != nil {
		t.Fatalf("parseDuOutput failed: %v", err)
	}
	if got != 12 {
		t.Fatalf("unexpected value: %d", got)
	}
	_, err = parseDuOutput("nothing useful")
	if !appErr.Is(err, appErr.UnexpectedOutputFormat) {
		t.Fatalf("expected output format error, got %v", err)
	}
}

type recordingRunner struct {
	spec command.Spec
	err  error
}

func (r *recordingRunner) Start(ctx context.Context, spec command.Spec) (command.Process, error) {
	r.spec = spec
	return nil, r.err
}

func TestDuMeasurerExpandsTemplate(t *testing.T) {
	runner := &recordingRunner{err: appErr.New(appErr.SpawnFailed)}
	m, err := NewDuMeasurer(DuConfig{Binary: "/usr/bin/du", Template: "-k -s -x {path}"}, runner)
	if err != nil {
		t.Fatalf("NewDuMeasurer failed: %v", err)
	}
	_, err = m.Measure(context.Background(), "/with space/dir")
	if !appErr.Is(err, appErr.SpawnFailed) {
		t.Fatalf("expected spawn failure, got %v", err)
	}
	want := []string{"-k", "-s", "-x", "/with space/dir"}
	if runner.spec.Path != "/usr/bin/du" || len(runner.spec.Args) != len(want) {
		t.Fatalf("unexpected spec: %+v", runner.spec)
	}
	for i := range want {
		if runner.spec.Args[i] != want[i] {
			t.Fatalf("arg %d: got %q want %q", i, runner.spec.Args[i], want[i])
		}
	}
}

func TestDuMeasurerRejectsBadTemplate(t *testing.T) {
	if _, err := NewDuMeasurer(DuConfig{Template: "-s 'open"}, nil); !appErr.Is(err, appErr.InvalidParams) {
		t.Fatalf("expected invalid template error, got %v", err)
	}
}
