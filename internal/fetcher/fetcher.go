// Package fetcher stages remote artifacts into a sandbox directory.
package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"nodeagent/internal/remotefs"
	appErr "nodeagent/pkg/errors"
	"nodeagent/pkg/utils/logger"

	"go.uber.org/zap"
)

// Request describes one artifact to stage.
type Request struct {
	URI        string `json:"uri"`
	SandboxDir string `json:"sandboxDir"`
	SandboxID  string `json:"sandboxId"`
	// Extract unpacks .tar.zst archives into the sandbox and removes the archive.
	Extract bool `json:"extract"`
	// Executable marks the fetched file as executable. Ignored when extracted.
	Executable bool `json:"executable"`
	// SHA256 is the expected hex digest of the downloaded file, if known.
	SHA256 string `json:"sha256"`
}

// Result describes what was staged.
type Result struct {
	Path      string `json:"path"`
	Bytes     int64  `json:"bytes"`
	Extracted bool   `json:"extracted"`
}

// Fetcher downloads artifacts through the filesystem serving each URI scheme.
type Fetcher struct {
	router *remotefs.Router
}

func New(router *remotefs.Router) *Fetcher {
	return &Fetcher{router: router}
}

// Fetch downloads req.URI into req.SandboxDir.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Result, error) {
	if req.SandboxID != "" {
		ctx = logger.WithSandbox(ctx, req.SandboxID)
	}
	if req.URI == "" {
		return Result{}, appErr.ValidationError("uri", "required")
	}
	if req.SandboxDir == "" {
		return Result{}, appErr.ValidationError("sandbox_dir", "required")
	}
	name, err := baseName(req.URI)
	if err != nil {
		return Result{}, err
	}
	fs, err := f.router.Resolve(req.URI)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(req.SandboxDir, 0755); err != nil {
		return Result{}, appErr.Wrapf(err, appErr.ArtifactFetchFailed, "create sandbox dir failed")
	}

	dst := filepath.Join(req.SandboxDir, name)
	if err := fs.DownloadLocal(ctx, req.URI, dst); err != nil {
		return Result{}, appErr.Wrapf(err, appErr.ArtifactFetchFailed, "fetch '%s' failed: %v", req.URI, err).
			WithDetail("uri", req.URI)
	}
	size, err := verifyDigest(dst, req.SHA256)
	if err != nil {
		_ = os.Remove(dst)
		return Result{}, err
	}

	res := Result{Path: dst, Bytes: size}
	switch {
	case req.Extract && IsArchive(name):
		if err := ExtractArchive(dst, req.SandboxDir); err != nil {
			return Result{}, err
		}
		_ = os.Remove(dst)
		res.Path = req.SandboxDir
		res.Extracted = true
	case req.Executable:
		if err := os.Chmod(dst, 0755); err != nil {
			return Result{}, appErr.Wrapf(err, appErr.ArtifactFetchFailed, "chmod '%s' failed", dst)
		}
	}
	logger.Info(ctx, "artifact fetched",
		zap.String("uri", req.URI),
		zap.String("path", res.Path),
		zap.Int64("bytes", size),
		zap.Bool("extracted", res.Extracted),
	)
	return res, nil
}

// baseName returns the last path element of uri, ignoring any authority.
func baseName(uri string) (string, error) {
	p := uri
	if scheme := remotefs.Scheme(uri); scheme != "" {
		_, p, _ = strings.Cut(uri[len(scheme)+len("://"):], "/")
	}
	name := path.Base(strings.TrimRight(p, "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", appErr.Newf(appErr.InvalidParams, "cannot derive a file name from '%s'", uri)
	}
	return name, nil
}

func verifyDigest(file, expected string) (int64, error) {
	fh, err := os.Open(file)
	if err != nil {
		return 0, appErr.Wrapf(err, appErr.ArtifactFetchFailed, "open fetched artifact failed")
	}
	defer fh.Close()
	hasher := sha256.New()
	size, err := io.Copy(hasher, fh)
	if err != nil {
		return 0, appErr.Wrapf(err, appErr.ArtifactFetchFailed, "read fetched artifact failed")
	}
	if expected != "" {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(actual, expected) {
			return 0, appErr.New(appErr.ArtifactFetchFailed).WithMessage("artifact hash mismatch").
				WithDetail("expected", expected).
				WithDetail("actual", actual)
		}
	}
	return size, nil
}
