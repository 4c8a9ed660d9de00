package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nodeagent/internal/command"
	"nodeagent/internal/common/cache"
	commonmw "nodeagent/internal/common/http/middleware"
	"nodeagent/internal/common/mq"
	"nodeagent/internal/common/storage"
	"nodeagent/internal/controller"
	"nodeagent/internal/diskusage"
	"nodeagent/internal/fetcher"
	"nodeagent/internal/quota"
	"nodeagent/internal/remotefs"
	"nodeagent/internal/remotefs/hdfs"
	"nodeagent/internal/remotefs/objectstore"
	"nodeagent/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/nodeagent.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}
	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	runner := command.NewRunner()
	health := controller.NewHealthController(defaultPingTimeout)

	var store quota.ReportStore
	if appCfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
		if err != nil {
			logger.Error(context.Background(), "init redis failed", zap.Error(err))
			return
		}
		defer func() {
			_ = redisCache.Close()
		}()
		store = quota.NewCacheReportStore(redisCache, appCfg.Quota.ReportTTL)
		health.Add("redis", redisCache)
	}

	var publisher quota.EventPublisher
	if len(appCfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewKafkaProducer(appCfg.Kafka.toMQConfig())
		if err != nil {
			logger.Error(context.Background(), "init kafka failed", zap.Error(err))
			return
		}
		defer func() {
			_ = producer.Close()
		}()
		pingCtx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
		err = producer.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Error(context.Background(), "kafka broker unreachable", zap.Strings("brokers", appCfg.Kafka.Brokers), zap.Error(err))
			return
		}
		publisher = quota.NewMQEventPublisher(producer, appCfg.Quota.Topic)
		health.Add("kafka", producer)
	}

	measurer, err := buildMeasurer(appCfg.DiskUsage, runner)
	if err != nil {
		logger.Error(context.Background(), "init disk usage measurer failed", zap.Error(err))
		return
	}
	manager := quota.NewManager(diskusage.NewCollector(measurer), store, publisher)

	router, err := buildRouter(appCfg, runner)
	if err != nil {
		logger.Error(context.Background(), "init remote filesystems failed", zap.Error(err))
		return
	}

	httpServer := buildHTTPServer(appCfg.Server,
		health,
		controller.NewMonitorController(manager, appCfg.DiskUsage.DefaultInterval),
		controller.NewRemoteFSController(router, fetcher.New(router)),
	)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "nodeagent http server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
	manager.Close(ctx)
}

func buildMeasurer(cfg DiskUsageConfig, runner command.Runner) (diskusage.Measurer, error) {
	if cfg.Measurer == measurerDu {
		return diskusage.NewDuMeasurer(cfg.Du, runner)
	}
	return diskusage.NewWalkMeasurer(), nil
}

// buildRouter wires the enabled filesystems. Scheme-less paths go to HDFS.
func buildRouter(cfg *AppConfig, runner command.Runner) (*remotefs.Router, error) {
	var fallback remotefs.FileSystem
	if cfg.HDFS.Enabled {
		client, err := hdfs.New(context.Background(), cfg.HDFS.Config, runner)
		if err != nil {
			return nil, err
		}
		logger.Info(context.Background(), "hdfs client ready", zap.String("binary", client.Binary()))
		fallback = client
	}
	router := remotefs.NewRouter(fallback)
	if fallback != nil {
		router.Register("hdfs", fallback)
	}
	if cfg.MinIO.Endpoint != "" {
		objStorage, err := storage.NewMinIOStorage(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		router.Register(objectstore.Scheme, objectstore.New(objStorage, cfg.MinIO.Bucket))
	}
	return router, nil
}

func buildHTTPServer(cfg ServerConfig, health *controller.HealthController, monitors *controller.MonitorController, remote *controller.RemoteFSController) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(requestLogger())

	controller.RegisterRoutes(router, health, monitors, remote)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
