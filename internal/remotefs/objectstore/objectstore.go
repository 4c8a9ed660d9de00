// Package objectstore exposes an S3-compatible bucket as a remotefs.FileSystem.
// A path names either a single object or, when no object has that exact key,
// every object below it as a directory.
package objectstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"nodeagent/internal/common/storage"
	"nodeagent/internal/remotefs"
	appErr "nodeagent/pkg/errors"
	"nodeagent/pkg/utils/logger"

	"go.uber.org/zap"
)

// Scheme is the URI scheme served by this filesystem.
const Scheme = "s3"

// FileSystem maps remotefs operations onto object storage calls.
type FileSystem struct {
	store         storage.ObjectStorage
	defaultBucket string
}

var _ remotefs.FileSystem = (*FileSystem)(nil)

// New wraps store. defaultBucket serves paths without a bucket.
func New(store storage.ObjectStorage, defaultBucket string) *FileSystem {
	return &FileSystem{store: store, defaultBucket: defaultBucket}
}

// Location is a parsed object path.
type Location struct {
	Bucket string
	Key    string
}

// Parse splits "s3://bucket/key" into bucket and key. A path without a
// scheme is a key in defaultBucket.
func Parse(uri, defaultBucket string) (Location, error) {
	rest := uri
	bucket := defaultBucket
	if scheme := remotefs.Scheme(uri); scheme != "" {
		if scheme != Scheme {
			return Location{}, appErr.Newf(appErr.UnsupportedScheme, "unsupported scheme '%s' in '%s'", scheme, uri)
		}
		rest = uri[len(scheme)+len("://"):]
		bucket, rest, _ = strings.Cut(rest, "/")
	}
	key := strings.TrimPrefix(rest, "/")
	if bucket == "" {
		return Location{}, appErr.Newf(appErr.InvalidParams, "no bucket in '%s'", uri)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// Exists reports whether an object or any object below the path exists.
func (f *FileSystem) Exists(ctx context.Context, path string) (bool, error) {
	loc, err := Parse(path, f.defaultBucket)
	if err != nil {
		return false, err
	}
	found, err := f.statObject(ctx, loc)
	if err != nil || found {
		return found, err
	}
	keys, _, err := f.listDir(ctx, loc)
	if err != nil {
		return false, err
	}
	return len(keys) > 0, nil
}

// Size returns the object size, or the sum of every object below the path.
func (f *FileSystem) Size(ctx context.Context, path string) (uint64, error) {
	loc, err := Parse(path, f.defaultBucket)
	if err != nil {
		return 0, err
	}
	if loc.Key != "" {
		stat, err := f.store.StatObject(ctx, loc.Bucket, loc.Key)
		if err == nil {
			return uint64(stat.SizeBytes), nil
		}
		if !errors.Is(err, storage.ErrObjectNotFound) {
			return 0, remoteFailure(err, "stat", path)
		}
	}
	keys, total, err := f.listDir(ctx, loc)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, appErr.Newf(appErr.RemoteOperationFailed, "'%s' does not exist", path).WithDetail("path", path)
	}
	return total, nil
}

// Delete removes the object, or every object below the path.
func (f *FileSystem) Delete(ctx context.Context, path string) error {
	loc, err := Parse(path, f.defaultBucket)
	if err != nil {
		return err
	}
	found, err := f.statObject(ctx, loc)
	if err != nil {
		return err
	}
	keys := []string{loc.Key}
	if !found {
		keys, _, err = f.listDir(ctx, loc)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return appErr.Newf(appErr.RemoteOperationFailed, "'%s' does not exist", path).WithDetail("path", path)
		}
	}
	if err := f.store.RemoveObjects(ctx, loc.Bucket, keys); err != nil {
		return remoteFailure(err, "remove", path)
	}
	logger.Debug(ctx, "objects removed", zap.String("path", path), zap.Int("count", len(keys)))
	return nil
}

// UploadLocal copies a local file to remotePath.
func (f *FileSystem) UploadLocal(ctx context.Context, localPath, remotePath string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return appErr.Wrapf(err, appErr.LocalPreconditionFailed, "failed to find '%s'", localPath).
			WithDetail("path", localPath)
	}
	if info.IsDir() {
		return appErr.Newf(appErr.LocalPreconditionFailed, "'%s' is a directory", localPath).
			WithDetail("path", localPath)
	}
	loc, err := Parse(remotePath, f.defaultBucket)
	if err != nil {
		return err
	}
	if loc.Key == "" {
		return appErr.Newf(appErr.InvalidParams, "no object key in '%s'", remotePath)
	}
	file, err := os.Open(localPath)
	if err != nil {
		return appErr.Wrapf(err, appErr.LocalPreconditionFailed, "failed to open '%s'", localPath)
	}
	defer file.Close()

	if err := f.store.PutObject(ctx, loc.Bucket, loc.Key, file, info.Size(), ""); err != nil {
		return remoteFailure(err, "put", remotePath)
	}
	return nil
}

// DownloadLocal copies the object at remotePath to localPath. The file is
// written beside its destination and renamed into place when complete.
func (f *FileSystem) DownloadLocal(ctx context.Context, remotePath, localPath string) error {
	loc, err := Parse(remotePath, f.defaultBucket)
	if err != nil {
		return err
	}
	reader, err := f.store.GetObject(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return remoteFailure(err, "get", remotePath)
	}
	defer reader.Close()

	tmp, err := os.CreateTemp(filepath.Dir(localPath), ".download-*")
	if err != nil {
		return appErr.Wrapf(err, appErr.LocalPreconditionFailed, "create temp file for '%s' failed: %v", localPath, err)
	}
	tmpName := tmp.Name()
	_, copyErr := io.Copy(tmp, reader)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		if copyErr == nil {
			copyErr = closeErr
		}
		return remoteFailure(copyErr, "download", remotePath)
	}
	if err := os.Rename(tmpName, localPath); err != nil {
		_ = os.Remove(tmpName)
		return appErr.Wrapf(err, appErr.InternalServerError, "move download into '%s' failed: %v", localPath, err)
	}
	return nil
}

func (f *FileSystem) statObject(ctx context.Context, loc Location) (bool, error) {
	if loc.Key == "" {
		return false, nil
	}
	_, err := f.store.StatObject(ctx, loc.Bucket, loc.Key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrObjectNotFound) {
		return false, nil
	}
	return false, remoteFailure(err, "stat", loc.Bucket+"/"+loc.Key)
}

func (f *FileSystem) listDir(ctx context.Context, loc Location) ([]string, uint64, error) {
	prefix := loc.Key
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	var keys []string
	var total uint64
	var listErr error
	// The channel is drained even after a failure so the lister can exit.
	for obj := range f.store.ListObjects(ctx, loc.Bucket, prefix) {
		if listErr != nil {
			continue
		}
		if obj.Err != nil {
			listErr = obj.Err
			continue
		}
		keys = append(keys, obj.Key)
		total += uint64(obj.SizeBytes)
	}
	if listErr != nil {
		return nil, 0, remoteFailure(listErr, "list", loc.Bucket+"/"+prefix)
	}
	return keys, total, nil
}

func remoteFailure(err error, op, path string) *appErr.Error {
	if errors.Is(err, storage.ErrObjectNotFound) {
		return appErr.Wrapf(err, appErr.RemoteOperationFailed, "'%s' does not exist", path).WithDetail("path", path)
	}
	return appErr.Wrapf(err, appErr.RemoteOperationFailed, "object store %s '%s' failed: %v", op, path, err).
		WithDetail("path", path)
}
