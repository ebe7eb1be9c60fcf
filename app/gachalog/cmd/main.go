package main

import (
	"fmt"
	"os"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/client"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/dao"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/metrics"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/scheduler"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/service"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/uploader"
	"github.com/lk2023060901/gachalogs/pkg/app"
	"github.com/lk2023060901/gachalogs/pkg/config"
	"github.com/lk2023060901/gachalogs/pkg/logger"
	"github.com/lk2023060901/gachalogs/pkg/prometheus"
	"github.com/lk2023060901/gachalogs/pkg/web"
)

// GachalogConfig 存储与业务配置共用 gachalog 节点
type GachalogConfig struct {
	Store   dao.Config     `mapstructure:",squash"`
	Service service.Config `mapstructure:",squash"`
}

// Config 定义服务的完整配置结构
type Config struct {
	Log     logger.Config             `mapstructure:"log"`
	Loggers map[string]*logger.Config `mapstructure:"loggers"`

	// HTTP 接口
	Web web.Config `mapstructure:"web"`

	// Prometheus 配置
	Prometheus prometheus.Config `mapstructure:"prometheus"`

	// 指标配置
	Metrics metrics.Config `mapstructure:"metrics"`

	// 抽卡记录存储与刷新
	Gachalog GachalogConfig `mapstructure:"gachalog"`

	// 米哈游接口
	Mihoyo client.Config `mapstructure:"mihoyo"`

	// 定时刷新
	Scheduler scheduler.Config `mapstructure:"scheduler"`

	// 导出文件上传
	Uploader uploader.Config `mapstructure:"uploader"`
}

var defaults = map[string]any{
	"web.addr":                            ":8080",
	"prometheus.namespace":                "gachalogs",
	"prometheus.http_server.path":         "/metrics",
	"prometheus.enable_go_collector":      true,
	"prometheus.enable_process_collector": true,
	"gachalog.data_dir":                   "data/gachalogs",
	"gachalog.expire":                     "1h",
}

func main() {
	var cfg Config

	// 1. 加载配置
	loaded, err := app.LoadConfig(&cfg, os.Args[1:], defaults)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := config.NewValidator().Validate(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// 2. 初始化主日志
	l, err := logger.New(&cfg.Log)
	if err != nil {
		panic(err)
	}
	logger.SetDefault(l)
	l.Info("config loaded", "path", loaded.ConfigPath, "version", app.Version)

	// 3. 通过 Wire 初始化应用
	application, cleanup, err := InitApp(&cfg, loaded.Manager, l)
	if err != nil {
		l.Error("failed to initialize application", "error", err)
		_ = l.Sync()
		os.Exit(1)
	}
	defer cleanup()

	// 4. 运行服务
	if err := application.Run(); err != nil {
		l.Error("application exited with error", "error", err)
	}
}
