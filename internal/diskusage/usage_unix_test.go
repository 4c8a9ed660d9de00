//go:build unix

package diskusage

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	appErr "nodeagent/pkg/errors"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	data := make([]byte, size)
	rand.New(rand.NewSource(int64(size))).Read(data)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s failed: %v", path, err)
	}
}

type measurerCase struct {
	name     string
	measurer func(t *testing.T) Measurer
}

func measurers() []measurerCase {
	return []measurerCase{
		{name: "walk", measurer: func(t *testing.T) Measurer { return NewWalkMeasurer() }},
		{name: "du", measurer: func(t *testing.T) Measurer {
			m, err := NewDuMeasurer(DuConfig{}, nil)
			if err != nil {
				t.Fatalf("NewDuMeasurer failed: %v", err)
			}
			return m
		}},
	}
}

func TestUsageSingleFile(t *testing.T) {
	for _, mc := range measurers() {
		t.Run(mc.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "file")
			writeFile(t, file, 8*1024)
			got, err := NewCollector(mc.measurer(t)).Usage(context.Background(), file)
			if err != nil {
				t.Fatalf("Usage failed: %v", err)
			}
			if got < 8*1024 {
				t.Fatalf("usage below logical size: %d", got)
			}
		})
	}
}

func TestUsageDirectory(t *testing.T) {
	for _, mc := range measurers() {
		t.Run(mc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "file1"), 8*1024)
			writeFile(t, filepath.Join(dir, "file2"), 4*1024)
			writeFile(t, filepath.Join(dir, "file3"), 1*1024)
			writeFile(t, filepath.Join(dir, "file4"), 2*1024)
			got, err := NewCollector(mc.measurer(t)).Usage(context.Background(), dir)
			if err != nil {
				t.Fatalf("Usage failed: %v", err)
			}
			if got < 15*1024 {
				t.Fatalf("usage below logical total: %d", got)
			}
		})
	}
}

func TestUsageDoesNotFollowSymlinks(t *testing.T) {
	for _, mc := range measurers() {
		t.Run(mc.name, func(t *testing.T) {
			root := t.TempDir()
			dir := filepath.Join(root, "dir")
			if err := os.Mkdir(dir, 0o755); err != nil {
				t.Fatalf("mkdir failed: %v", err)
			}
			writeFile(t, filepath.Join(dir, "file"), 8*1024)
			link := filepath.Join(dir, "symlink")
			if err := os.Symlink(dir, link); err != nil {
				t.Fatalf("symlink failed: %v", err)
			}
			c := NewCollector(mc.measurer(t))

			got, err := c.Usage(context.Background(), dir)
			if err != nil {
				t.Fatalf("Usage(dir) failed: %v", err)
			}
			if got < 8*1024 || got >= 16*1024 {
				t.Fatalf("usage of real dir out of bounds: %d", got)
			}

			got, err = c.Usage(context.Background(), link)
			if err != nil {
				t.Fatalf("Usage(link) failed: %v", err)
			}
			if got >= 8*1024 {
				t.Fatalf("usage at link should only count the link: %d", got)
			}
		})
	}
}

func TestUsageMissingPath(t *testing.T) {
	for _, mc := range measurers() {
		t.Run(mc.name, func(t *testing.T) {
			missing := filepath.Join(t.TempDir(), "missing")
			_, err := NewCollector(mc.measurer(t)).Usage(context.Background(), missing)
			if !appErr.Is(err, appErr.MeasurementFailed) {
				t.Fatalf("expected measurement failure, got %v", err)
			}
		})
	}
}

func TestWalkCountsHardLinksOnce(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	writeFile(t, file, 64*1024)
	single, err := NewWalkMeasurer().Measure(context.Background(), dir)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	if err := os.Link(file, filepath.Join(dir, "hardlink")); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	linked, err := NewWalkMeasurer().Measure(context.Background(), dir)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	if linked >= single+64*1024 {
		t.Fatalf("hard link counted twice: single=%d linked=%d", single, linked)
	}
}

func TestMonitorObservesGrowth(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "file1"), 8*1024)
	m, err := NewCollector(NewWalkMeasurer()).Watch(context.Background(), dir, time.Millisecond)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer m.Stop()

	waitFor(t, 5*time.Second, func() bool {
		r, ok := m.Latest()
		return ok && r.Bytes >= 8*1024
	})
	writeFile(t, filepath.Join(dir, "file2"), 64*1024)
	waitFor(t, 5*time.Second, func() bool {
		r, ok := m.Latest()
		return ok && r.Bytes >= 72*1024
	})
}
