// Package http 提供预测服务的HTTP服务器
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"sensorpredict/config"
	"sensorpredict/ml"
	"sensorpredict/monitoring"
)

// Predictor 把请求体转换为预测结果
type Predictor interface {
	Predict(ctx context.Context, body []byte) ([]float64, error)
}

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host           string
	Port           int
	Timeout        time.Duration
	MaxBodyBytes   int64
	AllowedOrigins []string
	MetricsPath    string
	FeedPath       string
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           5000,
		Timeout:        30 * time.Second,
		MaxBodyBytes:   1 << 20,
		AllowedOrigins: []string{"*"},
	}
}

// ServerConfigFrom 由加载的配置生成服务器配置，指标与推送路由仅在启用时设置
func ServerConfigFrom(cfg *config.Config) ServerConfig {
	sc := ServerConfig{
		Host:           cfg.HTTP.Host,
		Port:           cfg.HTTP.Port,
		Timeout:        cfg.HTTP.Timeout,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}
	if cfg.Metrics.Enabled {
		sc.MetricsPath = cfg.Metrics.Path
	}
	if cfg.Feed.Enabled {
		sc.FeedPath = cfg.Feed.Path
	}
	return sc
}

// Dependencies 服务器依赖。Metrics 与 Feed 可以为空
type Dependencies struct {
	Predictor Predictor
	Model     ml.Info
	Logger    *zap.Logger
	Metrics   *monitoring.Metrics
	Feed      *monitoring.FeedHub
}

// NewServer 创建HTTP服务器
func NewServer(cfg ServerConfig, deps Dependencies) (*Server, error) {
	if deps.Predictor == nil {
		return nil, errors.New("predictor is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultServerConfig().Timeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultServerConfig().MaxBodyBytes
	}

	mux := http.NewServeMux()
	registerRoutes(mux, cfg, deps)

	chain := Chain(
		LoggerMiddleware(deps.Logger),
		RecoveryMiddleware(deps.Logger),
		SecurityHeadersMiddleware,
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return &Server{
		server: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:      chain(mux),
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		config: cfg,
		logger: deps.Logger,
	}, nil
}

// Start 启动服务器，阻塞直到服务器关闭
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))
	if s.config.FeedPath != "" {
		s.logger.Info("prediction feed enabled", zap.String("path", s.config.FeedPath))
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}

// Handler 返回包装完中间件的处理器，供测试和嵌入使用
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
