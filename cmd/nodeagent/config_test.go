package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nodeagent.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppConfigDefaults(t *testing.T) {
	cfg, err := loadAppConfig(writeConfig(t, "logger:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != defaultHTTPAddr {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.DiskUsage.Measurer != measurerWalk {
		t.Fatalf("measurer = %q", cfg.DiskUsage.Measurer)
	}
	if cfg.DiskUsage.DefaultInterval != defaultMonitorInterval {
		t.Fatalf("interval = %v", cfg.DiskUsage.DefaultInterval)
	}
	if cfg.Quota.Topic != defaultQuotaTopic || cfg.Quota.ReportTTL != defaultReportTTL {
		t.Fatalf("quota = %+v", cfg.Quota)
	}
	if cfg.Redis.PoolSize != 0 {
		t.Fatalf("redis defaults applied without addr: %+v", cfg.Redis)
	}
	if cfg.HDFS.Enabled {
		t.Fatalf("hdfs enabled by default")
	}
}

func TestLoadAppConfigSections(t *testing.T) {
	body := `
hdfs:
  enabled: true
  binary: /opt/hadoop/bin/hadoop
  templates:
    usage: "fs -du -s {path}"
diskUsage:
  measurer: " DU "
  defaultInterval: 2s
  du:
    binary: /usr/bin/du
redis:
  addr: 127.0.0.1:6379
  poolSize: 4
kafka:
  brokers: ["b1:9092"]
  requiredAcks: -1
  compression: Zstd
`
	cfg, err := loadAppConfig(writeConfig(t, body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.HDFS.Enabled || cfg.HDFS.Binary != "/opt/hadoop/bin/hadoop" {
		t.Fatalf("hdfs = %+v", cfg.HDFS)
	}
	if cfg.HDFS.Templates.Usage != "fs -du -s {path}" {
		t.Fatalf("usage template = %q", cfg.HDFS.Templates.Usage)
	}
	if cfg.DiskUsage.Measurer != measurerDu || cfg.DiskUsage.Du.Binary != "/usr/bin/du" || cfg.DiskUsage.DefaultInterval != 2*time.Second {
		t.Fatalf("disk usage = %+v", cfg.DiskUsage)
	}
	if cfg.Redis.PoolSize != 4 || cfg.Redis.MaxRetries != 3 {
		t.Fatalf("redis = %+v", cfg.Redis)
	}

	mqCfg := cfg.Kafka.toMQConfig()
	if mqCfg.RequiredAcks != kafka.RequireAll {
		t.Fatalf("acks = %v", mqCfg.RequiredAcks)
	}
	if mqCfg.Compression != kafka.Zstd {
		t.Fatalf("compression = %v", mqCfg.Compression)
	}
}

func TestLoadAppConfigRejectsUnknownMeasurer(t *testing.T) {
	if _, err := loadAppConfig(writeConfig(t, "diskUsage:\n  measurer: ncdu\n")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	if _, err := loadAppConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseCompression(t *testing.T) {
	cases := map[string]kafka.Compression{
		"gzip":   kafka.Gzip,
		"snappy": kafka.Snappy,
		"LZ4":    kafka.Lz4,
		"zstd":   kafka.Zstd,
		"":       kafka.Compression(0),
		"brotli": kafka.Compression(0),
	}
	for raw, want := range cases {
		if got := parseCompression(raw); got != want {
			t.Fatalf("parseCompression(%q) = %v, want %v", raw, got, want)
		}
	}
}
