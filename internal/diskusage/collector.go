package diskusage

import (
	"context"
	"time"

	appErr "nodeagent/pkg/errors"
)

// Collector runs one-shot and periodic measurements with a single Measurer.
type Collector struct {
	measurer Measurer
}

func NewCollector(measurer Measurer) *Collector {
	if measurer == nil {
		measurer = NewWalkMeasurer()
	}
	return &Collector{measurer: measurer}
}

// Usage measures path once, independent of any periodic schedule.
func (c *Collector) Usage(ctx context.Context, path string) (uint64, error) {
	bytes, err := c.measurer.Measure(ctx, path)
	if err != nil {
		if appErr.GetCode(err) == appErr.InternalServerError {
			return 0, appErr.Wrapf(err, appErr.MeasurementFailed, "failed to measure '%s': %v", path, err)
		}
		return 0, err
	}
	return bytes, nil
}

// Watch starts measuring path every interval until the monitor is stopped
// or ctx is cancelled. The first measurement starts immediately.
func (c *Collector) Watch(ctx context.Context, path string, interval time.Duration, opts ...WatchOption) (*Monitor, error) {
	if path == "" {
		return nil, appErr.ValidationError("path", "required").WithMessage("monitor path is required")
	}
	if interval <= 0 {
		return nil, appErr.ValidationError("interval", "must be positive").WithMessagef("monitor interval must be positive, got %s", interval)
	}
	m := newMonitor(c, path, interval)
	for _, opt := range opts {
		opt(m)
	}
	go m.run(ctx)
	return m, nil
}
