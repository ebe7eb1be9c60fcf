package main

import (
	"context"
	"net/http"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/client"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/dao"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/handler"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/metrics"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/scheduler"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/service"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/uploader"
	"github.com/lk2023060901/gachalogs/pkg/app"
	"github.com/lk2023060901/gachalogs/pkg/config"
	"github.com/lk2023060901/gachalogs/pkg/logger"
	"github.com/lk2023060901/gachalogs/pkg/prometheus"
	"github.com/lk2023060901/gachalogs/pkg/web"
	webmetrics "github.com/lk2023060901/gachalogs/pkg/web/metrics"
)

func provideWebConfig(cfg *Config) (*web.Config, error) {
	return config.MergeConfig(web.DefaultConfig(), &cfg.Web)
}

func providePrometheusConfig(cfg *Config) *prometheus.Config {
	return &cfg.Prometheus
}

func provideMetricsConfig(cfg *Config) *metrics.Config {
	return &cfg.Metrics
}

func provideDAOConfig(cfg *Config) *dao.Config {
	return &cfg.Gachalog.Store
}

func provideServiceConfig(cfg *Config) *service.Config {
	return &cfg.Gachalog.Service
}

func provideClientConfig(cfg *Config) *client.Config {
	return &cfg.Mihoyo
}

func provideSchedulerConfig(cfg *Config) *scheduler.Config {
	return &cfg.Scheduler
}

func provideUploaderConfig(cfg *Config) *uploader.Config {
	return &cfg.Uploader
}

// provideHTTPClient 米哈游接口共用的 HTTP 客户端
func provideHTTPClient(cfg *client.Config) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = client.DefaultConfig().Timeout
	}
	return &http.Client{Timeout: timeout}
}

func provideFetcher(cfg *client.Config, hc *http.Client, l logger.Logger, m *metrics.GachaMetrics) (*client.Fetcher, error) {
	return client.NewFetcher(cfg, hc, l, client.WithObserver(m))
}

// provideUploader 未启用时返回 nil 接口，避免 service 拿到带类型的 nil
func provideUploader(cfg *uploader.Config, l logger.Logger) (service.Uploader, error) {
	u, err := uploader.New(cfg, l)
	if err != nil || u == nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := u.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

func provideHTTPMetrics(promCfg *prometheus.Config) *webmetrics.HTTPMetrics {
	return webmetrics.New(promCfg.Namespace)
}

// provideWebServer 挂载健康检查、指标与业务路由
func provideWebServer(
	cfg *web.Config,
	l logger.Logger,
	httpMetrics *webmetrics.HTTPMetrics,
	promClient *prometheus.Client,
	h *handler.GachaLogHandler,
) *web.Server {
	srv := web.NewServer(cfg, l, web.WithMetrics(httpMetrics))
	r := srv.Router()
	r.GET("/health", func(c *gin.Context) {
		web.Success(c, gin.H{"status": "ok", "version": app.Version})
	})
	if !promClient.Config().HTTPServer.Enabled {
		r.GET(promClient.Config().HTTPServer.Path, gin.WrapH(promClient.Handler()))
	}
	h.Register(r)
	return srv
}

// reloader 配置文件变更时更新可热加载的参数
type reloader struct {
	mgr     config.Manager
	svc     *service.GachaLogService
	fetcher *client.Fetcher
	logger  logger.Logger
}

func provideReloader(mgr config.Manager, svc *service.GachaLogService, fetcher *client.Fetcher, l logger.Logger) *reloader {
	r := &reloader{mgr: mgr, svc: svc, fetcher: fetcher, logger: l.Named("config.reload")}
	if mgr != nil {
		mgr.Watch(r.onChange)
	}
	return r
}

func (r *reloader) onChange(e fsnotify.Event) {
	if r.mgr.IsSet("gachalog.expire") {
		if d := r.mgr.GetDuration("gachalog.expire"); d > 0 {
			r.svc.SetExpire(d)
		}
	}
	if r.mgr.IsSet("mihoyo.page_interval") {
		r.fetcher.SetPageInterval(r.mgr.GetDuration("mihoyo.page_interval"))
	}
	r.logger.Info("config reloaded", "file", e.Name, "expire", r.svc.Expire())
}

// provideAppComponents 注册指标并汇总服务与清理组件
func provideAppComponents(
	l logger.Logger,
	promClient *prometheus.Client,
	gachaMetrics *metrics.GachaMetrics,
	httpMetrics *webmetrics.HTTPMetrics,
	webServer *web.Server,
	sched *scheduler.Scheduler,
	svc *service.GachaLogService,
	logsDAO *dao.LogsDAO,
	_ *reloader,
) (app.Components, error) {
	if err := gachaMetrics.Register(promClient.Registerer()); err != nil {
		return app.Components{}, err
	}
	if err := httpMetrics.Register(promClient.Registerer()); err != nil {
		return app.Components{}, err
	}

	return app.Components{
		Servers: []app.Server{promClient, webServer, sched},
		Closers: []app.Closer{
			svc,
			logsDAO,
			app.CloserFunc(func() error {
				_ = l.Sync()
				return nil
			}),
		},
	}, nil
}

func provideAppOptions(cfg *Config, l logger.Logger) ([]app.Option, error) {
	named, err := app.BuildLoggers(&cfg.Log, cfg.Loggers)
	if err != nil {
		return nil, err
	}
	return []app.Option{
		app.WithLogger(l),
		app.WithNamedLoggers(named),
		app.WithName(app.AppName),
	}, nil
}
