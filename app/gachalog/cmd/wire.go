//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/client"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/dao"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/handler"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/metrics"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/scheduler"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/service"
	"github.com/lk2023060901/gachalogs/pkg/app"
	"github.com/lk2023060901/gachalogs/pkg/config"
	"github.com/lk2023060901/gachalogs/pkg/logger"
	"github.com/lk2023060901/gachalogs/pkg/prometheus"
)

func InitApp(cfg *Config, mgr config.Manager, l logger.Logger) (*app.BaseApp, func(), error) {
	panic(wire.Build(
		// 1. 基础框架 (BaseApp)
		app.ProviderSet,

		// 2. 配置拆分
		provideWebConfig,
		providePrometheusConfig,
		provideMetricsConfig,
		provideDAOConfig,
		provideServiceConfig,
		provideClientConfig,
		provideSchedulerConfig,
		provideUploaderConfig,

		// 3. 指标
		prometheus.New,
		metrics.New,
		provideHTTPMetrics,

		// 4. 数据层 (JSON 文件)
		dao.NewConfigDAO,
		dao.NewLogsDAO,

		// 5. 米哈游接口
		provideHTTPClient,
		provideFetcher,
		client.NewCollector,
		client.NewResolver,
		wire.Bind(new(service.URLResolver), new(*client.Resolver)),
		wire.Bind(new(service.LogCollector), new(*client.Collector)),

		// 6. 导出上传 (S3)
		provideUploader,

		// 7. 业务服务
		service.NewGachaLogService,

		// 8. 定时刷新
		scheduler.New,
		wire.Bind(new(scheduler.UserSource), new(*dao.ConfigDAO)),
		wire.Bind(new(scheduler.Refresher), new(*service.GachaLogService)),

		// 9. HTTP 接口
		handler.NewGachaLogHandler,
		provideWebServer,

		// 10. 配置热加载
		provideReloader,

		// 11. 组装
		provideAppComponents,
		provideAppOptions,
	))
}
