// Package prometheus 指标注册表与暴露端点
package prometheus

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/lk2023060901/gachalogs/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Client 持有独立 Registry，业务指标注册到这里而不是全局默认注册表
type Client struct {
	config   *Config
	registry *prometheus.Registry
	logger   logger.Logger

	httpServer *http.Server
	closed     atomic.Bool
}

// New 创建 Client
func New(cfg *Config, l logger.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:   cfg,
		registry: prometheus.NewRegistry(),
		logger:   logger.OrDefault(l).Named("prometheus"),
	}
	if cfg.EnableGoCollector {
		c.registry.MustRegister(collectors.NewGoCollector())
	}
	if cfg.EnableProcessCollector {
		c.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return c, nil
}

// Registry 底层注册表
func (c *Client) Registry() *prometheus.Registry {
	return c.registry
}

// Registerer 业务指标注册入口
func (c *Client) Registerer() prometheus.Registerer {
	return c.registry
}

// Handler 指标 HTTP Handler
func (c *Client) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Config 当前配置
func (c *Client) Config() *Config {
	return c.config
}

// Start 启用独立端口时开始监听，否则什么也不做
func (c *Client) Start() error {
	if !c.config.HTTPServer.Enabled {
		return nil
	}
	if c.closed.Load() {
		return ErrClientClosed
	}

	mux := http.NewServeMux()
	mux.Handle(c.config.HTTPServer.Path, c.Handler())
	c.httpServer = &http.Server{
		Addr:         c.config.HTTPServer.Addr,
		Handler:      mux,
		ReadTimeout:  c.config.HTTPServer.Timeout,
		WriteTimeout: c.config.HTTPServer.Timeout,
	}

	ln, err := net.Listen("tcp", c.config.HTTPServer.Addr)
	if err != nil {
		return err
	}
	c.logger.Info("metrics server listening", "addr", ln.Addr().String(), "path", c.config.HTTPServer.Path)
	go func() {
		if err := c.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("metrics server stopped", "error", err)
		}
	}()
	return nil
}

// Stop 关闭独立端口
func (c *Client) Stop() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.config.HTTPServer.Timeout)
	defer cancel()
	return c.httpServer.Shutdown(ctx)
}

// IsClosed 是否已关闭
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
