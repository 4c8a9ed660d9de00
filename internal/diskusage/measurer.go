// Package diskusage measures how many bytes a directory tree occupies on
// disk, once or on a fixed cadence. Symbolic links are counted as
// themselves and never followed.
package diskusage

import (
	"context"
	"time"
)

// Measurer reports the block-rounded on-disk size of the tree at path.
// Results are at least the sum of logical file sizes and callers should
// only rely on bounds, not exact values.
type Measurer interface {
	Measure(ctx context.Context, path string) (uint64, error)
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(ctx context.Context, path string) (uint64, error)

func (f MeasureFunc) Measure(ctx context.Context, path string) (uint64, error) {
	return f(ctx, path)
}

// Report is one completed measurement.
type Report struct {
	Path       string    `json:"path"`
	Bytes      uint64    `json:"bytes"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}
