// Package remotefs defines filesystem-like operations against remote stores
// and routes logical URIs to the store that serves them.
package remotefs

import (
	"context"
	"strings"
	"sync"

	appErr "nodeagent/pkg/errors"
)

// FileSystem is the set of operations the workload layer needs from a
// remote store. Implementations do not retry; retry policy belongs to the caller.
type FileSystem interface {
	// Exists reports whether path exists.
	Exists(ctx context.Context, path string) (bool, error)
	// Size returns the number of bytes stored under path.
	Size(ctx context.Context, path string) (uint64, error)
	// Delete removes path.
	Delete(ctx context.Context, path string) error
	// UploadLocal copies a local file into the store.
	UploadLocal(ctx context.Context, localPath, remotePath string) error
	// DownloadLocal copies a remote file to a local destination.
	DownloadLocal(ctx context.Context, remotePath, localPath string) error
}

// Router maps URI schemes to filesystems.
type Router struct {
	mu       sync.RWMutex
	schemes  map[string]FileSystem
	fallback FileSystem
}

// NewRouter creates a router. Paths without a scheme go to fallback when set.
func NewRouter(fallback FileSystem) *Router {
	return &Router{schemes: make(map[string]FileSystem), fallback: fallback}
}

// Register binds a scheme such as "hdfs" or "s3" to fs.
func (r *Router) Register(scheme string, fs FileSystem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemes[strings.ToLower(scheme)] = fs
}

// Resolve returns the filesystem serving uri. The uri is returned unchanged;
// each filesystem interprets its own scheme.
func (r *Router) Resolve(uri string) (FileSystem, error) {
	scheme := Scheme(uri)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if scheme == "" {
		if r.fallback == nil {
			return nil, appErr.Newf(appErr.UnsupportedScheme, "no filesystem for scheme-less path '%s'", uri)
		}
		return r.fallback, nil
	}
	fs, ok := r.schemes[scheme]
	if !ok {
		return nil, appErr.Newf(appErr.UnsupportedScheme, "unsupported scheme '%s' in '%s'", scheme, uri).
			WithDetail("scheme", scheme)
	}
	return fs, nil
}

// Scheme returns the lower-cased scheme of uri, or "" when it has none.
func Scheme(uri string) string {
	idx := strings.Index(uri, "://")
	if idx <= 0 {
		return ""
	}
	scheme := uri[:idx]
	for _, c := range scheme {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.') {
			return ""
		}
	}
	return strings.ToLower(scheme)
}
