package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nodeagent/internal/common/cache"
	"nodeagent/internal/diskusage"
	appErr "nodeagent/pkg/errors"
)

const reportKeyPrefix = "nodeagent:usage:"

// ReportStore mirrors the latest report of each monitor so processes other
// than the one measuring can read it.
type ReportStore interface {
	Save(ctx context.Context, handle string, report diskusage.Report) error
	Get(ctx context.Context, handle string) (diskusage.Report, bool, error)
	Delete(ctx context.Context, handle string) error
}

// CacheReportStore keeps reports in the shared cache under a TTL, so a
// report whose monitor died without cleanup eventually disappears.
type CacheReportStore struct {
	cache cache.Cache
	TTL   time.Duration
}

func NewCacheReportStore(cacheClient cache.Cache, ttl time.Duration) *CacheReportStore {
	return &CacheReportStore{cache: cacheClient, TTL: ttl}
}

func (s *CacheReportStore) Save(ctx context.Context, handle string, report diskusage.Report) error {
	if handle == "" {
		return appErr.ValidationError("handle", "required")
	}
	if s.cache == nil {
		return appErr.New(appErr.CacheError).WithMessage("cache client is not initialized")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal usage report failed: %w", err)
	}
	if err := s.cache.Set(ctx, reportKeyPrefix+handle, string(data), s.TTL); err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "store usage report failed")
	}
	return nil
}

func (s *CacheReportStore) Get(ctx context.Context, handle string) (diskusage.Report, bool, error) {
	if handle == "" {
		return diskusage.Report{}, false, appErr.ValidationError("handle", "required")
	}
	if s.cache == nil {
		return diskusage.Report{}, false, appErr.New(appErr.CacheError).WithMessage("cache client is not initialized")
	}
	val, err := s.cache.Get(ctx, reportKeyPrefix+handle)
	if err != nil {
		return diskusage.Report{}, false, appErr.Wrapf(err, appErr.CacheError, "load usage report failed")
	}
	if val == "" {
		return diskusage.Report{}, false, nil
	}
	var report diskusage.Report
	if err := json.Unmarshal([]byte(val), &report); err != nil {
		return diskusage.Report{}, false, appErr.Wrapf(err, appErr.CacheError, "decode usage report failed")
	}
	return report, true, nil
}

func (s *CacheReportStore) Delete(ctx context.Context, handle string) error {
	if s.cache == nil {
		return appErr.New(appErr.CacheError).WithMessage("cache client is not initialized")
	}
	if err := s.cache.Del(ctx, reportKeyPrefix+handle); err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "delete usage report failed")
	}
	return nil
}
