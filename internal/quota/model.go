package quota

import (
	"time"

	"nodeagent/internal/diskusage"
)

// EventQuotaExceeded is the type of the event published when a monitored
// path grows past its limit.
const EventQuotaExceeded = "quota_exceeded"

// Event is the payload published for quota transitions.
type Event struct {
	Type       string    `json:"type"`
	Handle     string    `json:"handle"`
	Path       string    `json:"path"`
	UsageBytes uint64    `json:"usageBytes"`
	LimitBytes uint64    `json:"limitBytes"`
	ObservedAt time.Time `json:"observedAt"`
}

// MonitorInfo describes one monitor for callers outside the package.
type MonitorInfo struct {
	Handle     string            `json:"handle"`
	Path       string            `json:"path"`
	Interval   time.Duration     `json:"interval"`
	LimitBytes uint64            `json:"limitBytes,omitempty"`
	Latest     *diskusage.Report `json:"latest,omitempty"`
	LastError  string            `json:"lastError,omitempty"`
	Stats      diskusage.Stats   `json:"stats"`
	Exceeded   bool              `json:"exceeded"`
}

// CheckResult is the outcome of comparing the latest report with a limit.
// Report is nil when no measurement has completed yet.
type CheckResult struct {
	Report   *diskusage.Report `json:"report,omitempty"`
	Limit    uint64            `json:"limit"`
	Exceeded bool              `json:"exceeded"`
}
