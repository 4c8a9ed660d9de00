//go:build unix

package diskusage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	appErr "nodeagent/pkg/errors"

	"golang.org/x/sys/unix"
)

// WalkMeasurer sums st_blocks over the tree using lstat, so links are
// charged their own blocks and never entered. Files with several hard
// links are charged once per walk.
type WalkMeasurer struct{}

func NewWalkMeasurer() *WalkMeasurer {
	return &WalkMeasurer{}
}

type fileID struct {
	dev uint64
	ino uint64
}

func (m *WalkMeasurer) Measure(ctx context.Context, path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return 0, appErr.Wrapf(err, appErr.MeasurementFailed, "failed to measure '%s': %v", path, err).
			WithDetail("path", path)
	}
	seen := make(map[fileID]struct{})
	total, err := walkTree(ctx, path, &st, seen)
	if err != nil {
		return 0, appErr.Wrapf(err, appErr.MeasurementFailed, "failed to measure '%s': %v", path, err).
			WithDetail("path", path)
	}
	return total, nil
}

func walkTree(ctx context.Context, path string, st *unix.Stat_t, seen map[fileID]struct{}) (uint64, error) {
	total := uint64(st.Blocks) * 512
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return total, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		// Removed between lstat and open.
		if errors.Is(err, fs.ErrNotExist) {
			return total, nil
		}
		return 0, err
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		child := filepath.Join(path, entry.Name())
		var cst unix.Stat_t
		if err := unix.Lstat(child, &cst); err != nil {
			if errors.Is(err, unix.ENOENT) {
				continue
			}
			return 0, err
		}
		if cst.Mode&unix.S_IFMT != unix.S_IFDIR && cst.Nlink > 1 {
			id := fileID{dev: uint64(cst.Dev), ino: cst.Ino}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
		}
		n, err := walkTree(ctx, child, &cst, seen)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
