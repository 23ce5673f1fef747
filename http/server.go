// Package http 提供HTTP服务器功能
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"medpredict/artifact"
	"medpredict/db"
	"medpredict/monitoring"
	"medpredict/pipeline"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	AllowedOrigins []string
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           5000,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		RequestTimeout: 10 * time.Second,
		MaxBodyBytes:   1 << 20,
		AllowedOrigins: []string{"*"},
	}
}

// Dependencies 处理器依赖，PredictionLog和Hub可以为空
type Dependencies struct {
	Pipeline      *pipeline.Pipeline
	Store         *artifact.Store
	Metrics       *monitoring.MetricsCollector
	Hub           *monitoring.WebSocketHub
	PredictionLog *db.PredictionLog
	Logger        *zap.Logger
}

// NewHandler 构建带中间件的路由
func NewHandler(config ServerConfig, deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = monitoring.NewMetricsCollector()
	}

	mux := http.NewServeMux()
	api := &API{
		pipeline: deps.Pipeline,
		store:    deps.Store,
		metrics:  deps.Metrics,
		hub:      deps.Hub,
		log:      deps.PredictionLog,
		logger:   deps.Logger,
	}
	api.Register(mux)

	// 创建中间件链
	chain := Chain(
		RecoveryMiddleware(deps.Logger),          // 1. 恢复中间件（最先执行，捕获panic）
		LoggerMiddleware(deps.Logger),            // 2. 日志中间件
		SecurityHeadersMiddleware,                // 3. 安全头中间件
		CORSMiddleware(config.AllowedOrigins),    // 4. CORS中间件
		TimeoutMiddleware(config.RequestTimeout), // 5. 超时中间件
		RequestSizeMiddleware(config.MaxBodyBytes),
	)
	return chain(mux)
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      NewHandler(config, deps),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
		logger: deps.Logger,
	}
}

// Start 启动服务器，阻塞直到Stop
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Serve 在给定的监听器上提供服务
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", ln.Addr().String()),
		zap.String("predict", "POST /predict/{condition}"),
		zap.String("websocket", "/api/ws/predictions"),
	)
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

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
