package diskusage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"nodeagent/pkg/utils/logger"

	"go.uber.org/zap"
)

// WatchOption customizes a Monitor.
type WatchOption func(*Monitor)

// WithReportHook calls fn after every successful measurement, from the
// monitor goroutine.
func WithReportHook(fn func(context.Context, Report)) WatchOption {
	return func(m *Monitor) {
		m.onReport = fn
	}
}

// Stats counts what a monitor has done so far.
type Stats struct {
	Measurements uint64 `json:"measurements"`
	Failures     uint64 `json:"failures"`
	Skipped      uint64 `json:"skipped"`
}

type tickFailure struct {
	err error
}

// Monitor measures one path on a fixed cadence. Measurements never overlap:
// a tick that fires while one is running is dropped and counted as skipped.
// A failed measurement is logged and recorded, and the schedule continues.
type Monitor struct {
	collector *Collector
	path      string
	interval  time.Duration
	onReport  func(context.Context, Report)

	mu       sync.Mutex
	stopped  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}

	latest  atomic.Pointer[Report]
	lastErr atomic.Pointer[tickFailure]

	measurements atomic.Uint64
	failures     atomic.Uint64
	skipped      atomic.Uint64
}

func newMonitor(c *Collector, path string, interval time.Duration) *Monitor {
	return &Monitor{
		collector: c,
		path:      path,
		interval:  interval,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Path returns the monitored path.
func (m *Monitor) Path() string {
	return m.path
}

// Interval returns the measurement cadence.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Latest returns the most recent completed measurement.
func (m *Monitor) Latest() (Report, bool) {
	r := m.latest.Load()
	if r == nil {
		return Report{}, false
	}
	return *r, true
}

// LastError returns the failure of the most recent measurement, or nil if
// it succeeded.
func (m *Monitor) LastError() error {
	f := m.lastErr.Load()
	if f == nil {
		return nil
	}
	return f.err
}

func (m *Monitor) Stats() Stats {
	return Stats{
		Measurements: m.measurements.Load(),
		Failures:     m.failures.Load(),
		Skipped:      m.skipped.Load(),
	}
}

// Stop cancels the schedule. No measurement starts after Stop returns; one
// already running is allowed to finish and its result is kept. Stop is safe
// to call more than once and from any goroutine.
func (m *Monitor) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Stopped reports whether Stop has been called.
func (m *Monitor) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// Done is closed once the monitor goroutine has exited, which includes
// finishing any in-flight measurement.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	measureCtx := context.WithoutCancel(ctx)
	for {
		if !m.tick(measureCtx) {
			return
		}
		// Ticks that fired during the measurement are dropped.
		select {
		case <-ticker.C:
			m.skipped.Add(1)
		default:
		}
		select {
		case <-ticker.C:
		case <-m.stopCh:
			return
		case <-ctx.Done():
			m.Stop()
			return
		}
	}
}

// tick runs one measurement unless the monitor was stopped. The stopped
// check and the measurement start happen under the same lock as Stop.
func (m *Monitor) tick(ctx context.Context) bool {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return false
	}
	started := time.Now()
	m.mu.Unlock()

	bytes, err := m.collector.Usage(ctx, m.path)
	m.measurements.Add(1)
	if err != nil {
		m.failures.Add(1)
		m.lastErr.Store(&tickFailure{err: err})
		logger.Warn(ctx, "disk usage measurement failed", zap.String("path", m.path), zap.Error(err))
		return true
	}
	report := Report{Path: m.path, Bytes: bytes, StartedAt: started, FinishedAt: time.Now()}
	m.latest.Store(&report)
	m.lastErr.Store(nil)
	logger.Debug(ctx, "disk usage measured", zap.String("path", m.path), zap.Uint64("bytes", bytes))
	if m.onReport != nil {
		m.onReport(ctx, report)
	}
	return true
}
