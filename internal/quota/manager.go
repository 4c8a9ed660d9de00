// Package quota is the boundary the workload layer uses to watch sandbox
// disk usage: start a monitor, read its latest report, stop it, and check
// it against a limit.
package quota

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"nodeagent/internal/diskusage"
	appErr "nodeagent/pkg/errors"
	"nodeagent/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const storeTimeout = 2 * time.Second

// StartOption customizes one monitor.
type StartOption func(*entry)

// WithLimit makes every completed measurement check usage against limit
// and publish an exceeded event the first time it is crossed.
func WithLimit(limit uint64) StartOption {
	return func(e *entry) {
		e.limit = limit
	}
}

type entry struct {
	handle   string
	monitor  *diskusage.Monitor
	limit    uint64
	exceeded atomic.Bool

	// mu orders report mirroring against StopMonitoring's store delete.
	mu      sync.Mutex
	stopped bool
}

// Manager owns the monitors started through it.
type Manager struct {
	collector *diskusage.Collector
	store     ReportStore
	publisher EventPublisher

	mu       sync.RWMutex
	monitors map[string]*entry
}

// NewManager creates a manager. store and publisher may be nil.
func NewManager(collector *diskusage.Collector, store ReportStore, publisher EventPublisher) *Manager {
	return &Manager{
		collector: collector,
		store:     store,
		publisher: publisher,
		monitors:  make(map[string]*entry),
	}
}

// StartMonitoring measures path every interval and returns a handle for it.
// The monitor outlives ctx; it runs until StopMonitoring or Close.
func (m *Manager) StartMonitoring(ctx context.Context, path string, interval time.Duration, opts ...StartOption) (string, error) {
	e := &entry{handle: uuid.NewString()}
	for _, opt := range opts {
		opt(e)
	}
	mon, err := m.collector.Watch(context.WithoutCancel(ctx), path, interval, diskusage.WithReportHook(func(ctx context.Context, r diskusage.Report) {
		m.onReport(ctx, e, r)
	}))
	if err != nil {
		return "", err
	}
	e.monitor = mon

	m.mu.Lock()
	m.monitors[e.handle] = e
	m.mu.Unlock()

	logger.Info(ctx, "disk usage monitor started",
		zap.String("handle", e.handle),
		zap.String("path", path),
		zap.Duration("interval", interval),
		zap.Uint64("limit", e.limit),
	)
	return e.handle, nil
}

// LatestUsage returns the most recent report for handle. The bool is false
// when no measurement has completed yet. Handles not owned by this manager
// are looked up in the report store.
func (m *Manager) LatestUsage(ctx context.Context, handle string) (diskusage.Report, bool, error) {
	e, ok := m.lookup(handle)
	if ok {
		r, ok := e.monitor.Latest()
		return r, ok, nil
	}
	if m.store != nil {
		r, found, err := m.store.Get(ctx, handle)
		if err != nil {
			return diskusage.Report{}, false, err
		}
		if found {
			return r, true, nil
		}
	}
	return diskusage.Report{}, false, monitorNotFound(handle)
}

// StopMonitoring stops the monitor and forgets handle. A measurement in
// flight may still complete but is no longer reachable through the manager.
func (m *Manager) StopMonitoring(ctx context.Context, handle string) error {
	m.mu.Lock()
	e, ok := m.monitors[handle]
	delete(m.monitors, handle)
	m.mu.Unlock()
	if !ok {
		return monitorNotFound(handle)
	}
	e.monitor.Stop()
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
	if m.store != nil {
		if err := m.store.Delete(ctx, handle); err != nil {
			logger.Warn(ctx, "delete usage report failed", zap.String("handle", handle), zap.Error(err))
		}
	}
	logger.Info(ctx, "disk usage monitor stopped", zap.String("handle", handle), zap.String("path", e.monitor.Path()))
	return nil
}

// Check compares the latest report for handle with limit. Crossing the
// limit publishes one exceeded event per monitor.
func (m *Manager) Check(ctx context.Context, handle string, limit uint64) (CheckResult, error) {
	e, ok := m.lookup(handle)
	if !ok {
		return CheckResult{}, monitorNotFound(handle)
	}
	res := CheckResult{Limit: limit}
	r, ok := e.monitor.Latest()
	if !ok {
		return res, nil
	}
	res.Report = &r
	res.Exceeded = r.Bytes > limit
	if res.Exceeded {
		m.notifyExceeded(ctx, e, r, limit)
	}
	return res, nil
}

// Describe returns a snapshot of one monitor.
func (m *Manager) Describe(handle string) (MonitorInfo, error) {
	e, ok := m.lookup(handle)
	if !ok {
		return MonitorInfo{}, monitorNotFound(handle)
	}
	return describe(e), nil
}

// List returns snapshots of every monitor ordered by path, then handle.
func (m *Manager) List() []MonitorInfo {
	m.mu.RLock()
	out := make([]MonitorInfo, 0, len(m.monitors))
	for _, e := range m.monitors {
		out = append(out, describe(e))
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Handle < out[j].Handle
	})
	return out
}

// Close stops every monitor and waits for their goroutines to exit.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.monitors))
	for h, e := range m.monitors {
		entries = append(entries, e)
		delete(m.monitors, h)
	}
	m.mu.Unlock()
	for _, e := range entries {
		e.monitor.Stop()
	}
	for _, e := range entries {
		select {
		case <-e.monitor.Done():
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) lookup(handle string) (*entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.monitors[handle]
	return e, ok
}

// onReport mirrors r and checks the monitor's limit. Reports finishing
// after StopMonitoring are dropped so a deleted handle stays deleted.
func (m *Manager) onReport(ctx context.Context, e *entry, r diskusage.Report) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	if m.store != nil {
		storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		if err := m.store.Save(storeCtx, e.handle, r); err != nil {
			logger.Warn(ctx, "save usage report failed", zap.String("handle", e.handle), zap.Error(err))
		}
		cancel()
	}
	e.mu.Unlock()
	if e.limit > 0 && r.Bytes > e.limit {
		m.notifyExceeded(ctx, e, r, e.limit)
	}
}

func (m *Manager) notifyExceeded(ctx context.Context, e *entry, r diskusage.Report, limit uint64) {
	if !e.exceeded.CompareAndSwap(false, true) {
		return
	}
	logger.Warn(ctx, "disk quota exceeded",
		zap.String("handle", e.handle),
		zap.String("path", r.Path),
		zap.Uint64("usage", r.Bytes),
		zap.Uint64("limit", limit),
	)
	if m.publisher == nil {
		return
	}
	event := Event{
		Type:       EventQuotaExceeded,
		Handle:     e.handle,
		Path:       r.Path,
		UsageBytes: r.Bytes,
		LimitBytes: limit,
		ObservedAt: r.FinishedAt,
	}
	if err := m.publisher.PublishExceeded(ctx, event); err != nil {
		// Allow the next report to try again.
		e.exceeded.Store(false)
		logger.Error(ctx, "publish quota event failed", zap.String("handle", e.handle), zap.Error(err))
	}
}

func describe(e *entry) MonitorInfo {
	info := MonitorInfo{
		Handle:     e.handle,
		Path:       e.monitor.Path(),
		Interval:   e.monitor.Interval(),
		LimitBytes: e.limit,
		Stats:      e.monitor.Stats(),
		Exceeded:   e.exceeded.Load(),
	}
	if r, ok := e.monitor.Latest(); ok {
		info.Latest = &r
	}
	if err := e.monitor.LastError(); err != nil {
		info.LastError = err.Error()
	}
	return info
}

func monitorNotFound(handle string) *appErr.Error {
	return appErr.Newf(appErr.MonitorNotFound, "disk usage monitor '%s' not found", handle).WithDetail("handle", handle)
}
