// Package scheduler 定时刷新已保存凭证的用户的抽卡记录
package scheduler

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/service"
	"github.com/lk2023060901/gachalogs/pkg/config"
	"github.com/lk2023060901/gachalogs/pkg/logger"
)

// Config 定时任务配置
type Config struct {
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	// Spec cron 表达式，支持 @every 1h 形式
	Spec string `mapstructure:"spec" json:"spec" yaml:"spec" validate:"required_if=Enabled true"`
	// Concurrency 同时刷新的用户数
	Concurrency int `mapstructure:"concurrency" json:"concurrency" yaml:"concurrency" validate:"gte=0"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Spec:        "@every 1h",
		Concurrency: 1,
	}
}

// UserSource 列出所有用户配置
type UserSource interface {
	All(ctx context.Context) (map[string]*model.UserConfig, error)
}

// Refresher 刷新单个用户
type Refresher interface {
	Refresh(ctx context.Context, req service.RefreshRequest) (*service.RefreshResult, error)
}

// Report 一轮刷新的统计
type Report struct {
	Refreshed int
	Cached    int
	Failed    int
}

// Scheduler 实现 app.Server
type Scheduler struct {
	cfg       *Config
	cron      *cron.Cron
	users     UserSource
	refresher Refresher
	logger    logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New 创建定时任务，未启用时 Start/Stop 不做任何事
func New(cfg *Config, users UserSource, refresher Refresher, l logger.Logger) (*Scheduler, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge scheduler config: %w", err)
	}
	l = logger.OrDefault(l).Named("scheduler")

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cfg:       newCfg,
		users:     users,
		refresher: refresher,
		logger:    l,
		ctx:       ctx,
		cancel:    cancel,
	}
	if !newCfg.Enabled {
		return s, nil
	}

	cl := cronLogger{l: l}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := s.cron.AddFunc(newCfg.Spec, func() { s.RunOnce(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid cron spec %q: %w", newCfg.Spec, err)
	}
	return s, nil
}

// Start 启动定时任务
func (s *Scheduler) Start() error {
	if s.cron == nil {
		return nil
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.cfg.Spec)
	return nil
}

// Stop 停止调度并等待正在执行的任务退出
func (s *Scheduler) Stop() error {
	s.cancel()
	if s.cron == nil {
		return nil
	}
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// RunOnce 刷新所有保存了链接或 Cookie 的用户；缓存仍有效的用户由服务直接返回缓存
func (s *Scheduler) RunOnce(ctx context.Context) Report {
	all, err := s.users.All(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list users", "error", err)
		return Report{}
	}

	ids := make([]string, 0, len(all))
	for id, cfg := range all {
		if cfg != nil && (cfg.URL != "" || cfg.Cookie != "") {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	var refreshed, cached, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.Concurrency, 1))
	for _, id := range ids {
		g.Go(func() error {
			res, err := s.refresher.Refresh(gctx, service.RefreshRequest{UserID: id})
			switch {
			case err != nil:
				failed.Add(1)
				s.logger.WarnContext(gctx, "scheduled refresh failed", "user_id", id, "error", err)
			case res.Cached:
				cached.Add(1)
			default:
				refreshed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Refreshed: int(refreshed.Load()), Cached: int(cached.Load()), Failed: int(failed.Load())}
	s.logger.InfoContext(ctx, "scheduled refresh finished",
		"users", len(ids), "refreshed", report.Refreshed, "cached", report.Cached, "failed", report.Failed)
	return report
}

// cronLogger 适配 cron.Logger
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
