package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"nodeagent/internal/common/cache"
	"nodeagent/internal/common/mq"
	"nodeagent/internal/common/storage"
	"nodeagent/internal/diskusage"
	"nodeagent/internal/remotefs/hdfs"
	"nodeagent/pkg/utils/logger"

	"github.com/segmentio/kafka-go"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8090"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultPingTimeout     = 3 * time.Second
	defaultMonitorInterval = 15 * time.Second
	defaultReportTTL       = 10 * time.Minute
	defaultQuotaTopic      = "nodeagent.quota.exceeded"

	measurerWalk = "walk"
	measurerDu   = "du"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// HDFSConfig holds CLI client settings. The client is only built when enabled.
type HDFSConfig struct {
	Enabled     bool `yaml:"enabled"`
	hdfs.Config `yaml:",inline"`
}

// DiskUsageConfig selects how trees are measured.
type DiskUsageConfig struct {
	Measurer        string             `yaml:"measurer"`
	Du              diskusage.DuConfig `yaml:"du"`
	DefaultInterval time.Duration      `yaml:"defaultInterval"`
}

// QuotaConfig holds report mirroring and event settings.
type QuotaConfig struct {
	ReportTTL time.Duration `yaml:"reportTTL"`
	Topic     string        `yaml:"topic"`
}

// KafkaConfig holds Kafka producer settings.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	ClientID     string        `yaml:"clientID"`
	BatchSize    int           `yaml:"batchSize"`
	BatchTimeout time.Duration `yaml:"batchTimeout"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	RequiredAcks int           `yaml:"requiredAcks"`
	Compression  string        `yaml:"compression"`
}

// AppConfig holds nodeagent config. Redis, Kafka and MinIO are optional;
// the features they back are disabled when they are not configured.
type AppConfig struct {
	Server    ServerConfig        `yaml:"server"`
	Logger    logger.Config       `yaml:"logger"`
	HDFS      HDFSConfig          `yaml:"hdfs"`
	DiskUsage DiskUsageConfig     `yaml:"diskUsage"`
	Quota     QuotaConfig         `yaml:"quota"`
	Redis     cache.RedisConfig   `yaml:"redis"`
	Kafka     KafkaConfig         `yaml:"kafka"`
	MinIO     storage.MinIOConfig `yaml:"minio"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) error {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}

	cfg.DiskUsage.Measurer = strings.ToLower(strings.TrimSpace(cfg.DiskUsage.Measurer))
	switch cfg.DiskUsage.Measurer {
	case "":
		cfg.DiskUsage.Measurer = measurerWalk
	case measurerWalk, measurerDu:
	default:
		return fmt.Errorf("unknown disk usage measurer %q", cfg.DiskUsage.Measurer)
	}
	if cfg.DiskUsage.DefaultInterval == 0 {
		cfg.DiskUsage.DefaultInterval = defaultMonitorInterval
	}

	if cfg.Quota.ReportTTL == 0 {
		cfg.Quota.ReportTTL = defaultReportTTL
	}
	if cfg.Quota.Topic == "" {
		cfg.Quota.Topic = defaultQuotaTopic
	}
	if cfg.Redis.Addr != "" {
		applyRedisDefaults(&cfg.Redis)
	}
	return nil
}

func applyRedisDefaults(cfg *cache.RedisConfig) {
	defaults := cache.DefaultRedisConfig()
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.MinRetryBackoff == 0 {
		cfg.MinRetryBackoff = defaults.MinRetryBackoff
	}
	if cfg.MaxRetryBackoff == 0 {
		cfg.MaxRetryBackoff = defaults.MaxRetryBackoff
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = defaults.PoolSize
	}
	if cfg.MinIdleConns == 0 {
		cfg.MinIdleConns = defaults.MinIdleConns
	}
}

func (k KafkaConfig) toMQConfig() mq.KafkaConfig {
	return mq.KafkaConfig{
		Brokers:      k.Brokers,
		ClientID:     k.ClientID,
		BatchSize:    k.BatchSize,
		BatchTimeout: k.BatchTimeout,
		DialTimeout:  k.DialTimeout,
		WriteTimeout: k.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(k.RequiredAcks),
		Compression:  parseCompression(k.Compression),
	}
}

func parseCompression(raw string) kafka.Compression {
	switch strings.ToLower(raw) {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Compression(0)
	}
}
