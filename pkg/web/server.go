// Package web 基于 gin 的 HTTP 服务
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/gachalogs/pkg/logger"
	"github.com/lk2023060901/gachalogs/pkg/web/metrics"
	"github.com/lk2023060901/gachalogs/pkg/web/middleware"
)

// Server Web 服务，实现 app.Server
type Server struct {
	engine  *gin.Engine
	config  *Config
	logger  logger.Logger
	limiter *middleware.RateLimiter

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// ServerOption 服务选项
type ServerOption func(*serverOptions)

type serverOptions struct {
	metrics *metrics.HTTPMetrics
}

// WithMetrics 挂载 HTTP 指标中间件
func WithMetrics(m *metrics.HTTPMetrics) ServerOption {
	return func(o *serverOptions) { o.metrics = m }
}

// NewServer 创建 Web 服务并挂载基础中间件
func NewServer(cfg *Config, l logger.Logger, opts ...ServerOption) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l = logger.OrDefault(l)

	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	gin.SetMode(cfg.Mode)
	RegisterJSONTagNames()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(l.Named("web.access")))
	engine.Use(middleware.Recovery(l.Named("web.recovery")))
	if o.metrics != nil {
		engine.Use(middleware.Metrics(o.metrics))
	}
	if cfg.CORS.Enabled {
		engine.Use(middleware.CORS(cfg.CORS.AllowOrigins))
	}

	s := &Server{
		engine: engine,
		config: cfg,
		logger: l.Named("web.server"),
	}

	if cfg.RateLimit.Enabled {
		s.limiter = middleware.NewRateLimiter(l.Named("web.ratelimit"), middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			SkipPaths:         cfg.RateLimit.SkipPaths,
			MaxLimiters:       cfg.RateLimit.MaxClients,
			LimiterTTL:        cfg.RateLimit.ClientTTL,
		})
		engine.Use(middleware.RateLimit(s.limiter))
	}
	engine.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	return s
}

// Router 注册路由用
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Handler http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr 实际监听地址，未启动时为空
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start 监听端口后异步提供服务，端口占用等错误同步返回
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return ErrServerAlreadyStarted
	}

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:        s.engine,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	srv := s.server
	tls := s.config.EnableTLS
	s.logger.Info("http server listening", "addr", ln.Addr().String(), "tls", tls)
	go func() {
		var err error
		if tls {
			err = srv.ServeTLS(ln, s.config.CertFile, s.config.KeyFile)
		} else {
			err = srv.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", "error", err)
		}
	}()
	return nil
}

// Stop 优雅关闭
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if s.limiter != nil {
		_ = s.limiter.Close()
	}
	if srv == nil {
		return ErrServerNotStarted
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("http server exited")
	return nil
}
