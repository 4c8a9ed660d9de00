//go:build !unix

package diskusage

import (
	"context"

	appErr "nodeagent/pkg/errors"
)

type WalkMeasurer struct{}

func NewWalkMeasurer() *WalkMeasurer {
	return &WalkMeasurer{}
}

func (m *WalkMeasurer) Measure(ctx context.Context, path string) (uint64, error) {
	return 0, appErr.Newf(appErr.MeasurementFailed, "block usage walk is not supported on this platform")
}
