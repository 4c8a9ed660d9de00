// Package hdfs drives the hadoop command-line client to implement
// remotefs.FileSystem against HDFS.
package hdfs

import (
	"context"
	"os"
	"time"

	"nodeagent/internal/command"
	"nodeagent/internal/remotefs"
	appErr "nodeagent/pkg/errors"
	"nodeagent/pkg/utils/logger"

	"go.uber.org/zap"
)

// Config configures the CLI client.
type Config struct {
	// Binary is an explicit client path. When empty the installation root
	// named by HomeEnv is tried, then a bare "hadoop" on PATH.
	Binary    string    `yaml:"binary"`
	HomeEnv   string    `yaml:"homeEnv"`
	Templates Templates `yaml:"templates"`
}

// Client runs one CLI invocation per operation. It holds no mutable state
// and is safe for concurrent use. Operations are bounded only by ctx.
type Client struct {
	binary string
	tpl    compiledTemplates
	runner command.Runner
}

var _ remotefs.FileSystem = (*Client)(nil)

// New resolves the client binary and verifies it runs. A binary that fails
// the version probe yields a ToolUnavailable error and no client.
func New(ctx context.Context, cfg Config, runner command.Runner) (*Client, error) {
	if runner == nil {
		runner = command.NewRunner()
	}
	homeEnv := cfg.HomeEnv
	if homeEnv == "" {
		homeEnv = DefaultHomeEnv
	}
	tpl, err := cfg.Templates.compile()
	if err != nil {
		return nil, err
	}
	c := &Client{
		binary: ResolveBinary(ExplicitBinary(cfg.Binary), HomeBinary(homeEnv), SearchPathBinary(DefaultBinary)),
		tpl:    tpl,
		runner: runner,
	}

	res, err := c.run(ctx, c.tpl.version, nil)
	if err == nil {
		err = command.RequireSuccess(res)
	}
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.ToolUnavailable, "hadoop client '%s' is not executable: %v", c.binary, err).
			WithDetail("binary", c.binary)
	}
	logger.Info(ctx, "hadoop client ready", zap.String("binary", c.binary))
	return c, nil
}

// Binary returns the resolved client path.
func (c *Client) Binary() string {
	return c.binary
}

// Exists maps exit code 0 to true and 1 to false. Any other status is an error.
func (c *Client) Exists(ctx context.Context, path string) (bool, error) {
	res, err := c.run(ctx, c.tpl.exists, map[string]string{"path": AbsolutePath(path)})
	if err != nil {
		return false, err
	}
	code, ok := res.Status.ExitCode()
	switch {
	case !res.Status.Known():
		return false, command.NotReaped(res)
	case ok && code == 0:
		return true, nil
	case ok && code == 1:
		return false, nil
	default:
		return false, command.UnexpectedResult(res)
	}
}

// Size returns the usage the client reports for path.
func (c *Client) Size(ctx context.Context, path string) (uint64, error) {
	abs := AbsolutePath(path)
	res, err := c.run(ctx, c.tpl.usage, map[string]string{"path": abs})
	if err != nil {
		return 0, err
	}
	if err := command.RequireSuccess(res); err != nil {
		return 0, err
	}
	return ParseUsage(res.Stdout, abs)
}

// Delete removes path.
func (c *Client) Delete(ctx context.Context, path string) error {
	res, err := c.run(ctx, c.tpl.remove, map[string]string{"path": AbsolutePath(path)})
	if err != nil {
		return err
	}
	return command.RequireSuccess(res)
}

// UploadLocal copies localPath to remotePath. The local file must exist
// before the client is spawned.
func (c *Client) UploadLocal(ctx context.Context, localPath, remotePath string) error {
	if _, err := os.Stat(localPath); err != nil {
		return appErr.Wrapf(err, appErr.LocalPreconditionFailed, "failed to find '%s'", localPath).
			WithDetail("path", localPath)
	}
	res, err := c.run(ctx, c.tpl.copyFromLocal, map[string]string{"src": localPath, "dst": AbsolutePath(remotePath)})
	if err != nil {
		return err
	}
	return command.RequireSuccess(res)
}

// DownloadLocal copies remotePath to localPath.
func (c *Client) DownloadLocal(ctx context.Context, remotePath, localPath string) error {
	res, err := c.run(ctx, c.tpl.copyToLocal, map[string]string{"src": AbsolutePath(remotePath), "dst": localPath})
	if err != nil {
		return err
	}
	return command.RequireSuccess(res)
}

func (c *Client) run(ctx context.Context, tpl argTemplate, vars map[string]string) (command.Result, error) {
	spec := command.Spec{Path: c.binary, Args: tpl.expand(vars)}
	start := time.Now()
	res, err := command.Run(ctx, c.runner, spec)
	if err != nil {
		logger.Warn(ctx, "hadoop command failed", zap.String("cmd", spec.String()), zap.Error(err))
		return res, err
	}
	logger.Debug(ctx, "hadoop command finished",
		zap.String("cmd", spec.String()),
		zap.String("status", res.Status.String()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}
