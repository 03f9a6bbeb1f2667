package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sensorpredict/bridge"
	"sensorpredict/config"
	qhttp "sensorpredict/http"
	"sensorpredict/logging"
	"sensorpredict/ml"
	"sensorpredict/monitoring"
	"sensorpredict/predict"
)

const shutdownTimeout = 5 * time.Second

// 测试中可替换
var initTracing = monitoring.InitTracing

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("sensorpredict: %v", err)
	}
}

func run(configPath string) error {
	// 1. 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, level, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	shutdownTracing, err := initTracing(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	// 任何退出路径都要刷新缓冲的 span
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("trace exporter shutdown", zap.Error(err))
		}
	}()

	// 2. 加载模型，失败则不启动
	model, err := ml.LoadModel(cfg.Model.Path)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	info := model.Info()
	logger.Info("model loaded",
		zap.String("path", cfg.Model.Path),
		zap.String("type", info.Type),
		zap.Strings("features", info.Features),
	)

	metrics := monitoring.NewMetrics()
	svc, err := predict.NewService(model,
		predict.WithCache(cfg.Model.CacheSize),
		predict.WithRecorder(metrics),
		predict.WithLogger(logger.Named("predict")),
	)
	if err != nil {
		return fmt.Errorf("init prediction service: %w", err)
	}

	// 3. 推送中心与 MQTT 桥接
	var hub *monitoring.FeedHub
	if cfg.Feed.Enabled || cfg.MQTT.Enabled {
		hub = monitoring.NewFeedHub(logger.Named("feed"), metrics)
		go hub.Run()
		defer hub.Stop()
	}

	if cfg.MQTT.Enabled {
		br, err := bridge.New(cfg.MQTT, svc, info.Labels, hub,
			bridge.WithLogger(logger.Named("bridge")),
			bridge.WithObserver(metrics),
		)
		if err != nil {
			return fmt.Errorf("init mqtt bridge: %w", err)
		}
		if err := br.Start(); err != nil {
			return fmt.Errorf("start mqtt bridge: %w", err)
		}
		defer br.Stop()
	}

	// 4. HTTP服务器
	deps := qhttp.Dependencies{
		Predictor: svc,
		Model:     info,
		Logger:    logger.Named("http"),
		Metrics:   metrics,
	}
	if cfg.Feed.Enabled {
		deps.Feed = hub
	}
	server, err := qhttp.NewServer(qhttp.ServerConfigFrom(cfg), deps)
	if err != nil {
		return fmt.Errorf("init http server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		err := config.Watch(ctx, configPath, func(next *config.Config) {
			if err := logging.SetLevel(level, next.Log.Level); err != nil {
				logger.Warn("ignoring log level change", zap.Error(err))
				return
			}
			logger.Info("log level updated", zap.String("level", next.Log.Level))
		}, func(err error) {
			logger.Warn("config reload failed", zap.Error(err))
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("config watch stopped", zap.Error(err))
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	// 5. 优雅关闭
	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
	return nil
}
