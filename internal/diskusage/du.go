package diskusage

import (
	"context"
	"strconv"
	"strings"

	"nodeagent/internal/command"
	appErr "nodeagent/pkg/errors"

	"github.com/google/shlex"
)

const (
	defaultDuBinary   = "du"
	defaultDuTemplate = "-k -s {path}"
)

// DuConfig configures DuMeasurer. Template is split with shell quoting
// rules and {path} is substituted per argument.
type DuConfig struct {
	Binary   string `yaml:"binary"`
	Template string `yaml:"template"`
}

// DuMeasurer runs du and reads the kibibyte total it prints. du does not
// dereference a symbolic link named on its command line.
type DuMeasurer struct {
	binary string
	args   []string
	runner command.Runner
}

func NewDuMeasurer(cfg DuConfig, runner command.Runner) (*DuMeasurer, error) {
	if cfg.Binary == "" {
		cfg.Binary = defaultDuBinary
	}
	if cfg.Template == "" {
		cfg.Template = defaultDuTemplate
	}
	if runner == nil {
		runner = command.NewRunner()
	}
	args, err := shlex.Split(cfg.Template)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "parse du template failed: %v", err)
	}
	return &DuMeasurer{binary: cfg.Binary, args: args, runner: runner}, nil
}

func (m *DuMeasurer) Measure(ctx context.Context, path string) (uint64, error) {
	args := make([]string, len(m.args))
	for i, a := range m.args {
		args[i] = strings.ReplaceAll(a, "{path}", path)
	}
	res, err := command.Run(ctx, m.runner, command.Spec{Path: m.binary, Args: args})
	if err != nil {
		return 0, err
	}
	if err := command.RequireSuccess(res); err != nil {
		return 0, appErr.Wrapf(err, appErr.MeasurementFailed, "failed to measure '%s': %v", path, err).
			WithDetail("path", path)
	}
	kib, err := parseDuOutput(res.Stdout)
	if err != nil {
		return 0, err
	}
	return kib * 1024, nil
}

// parseDuOutput returns the leading integer of the first line that has one.
func parseDuOutput(out string) (uint64, error) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if n, err := strconv.ParseUint(fields[0], 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, appErr.Newf(appErr.UnexpectedOutputFormat, "unexpected output format: '%s'", out).
		WithDetail("stdout", out)
}
