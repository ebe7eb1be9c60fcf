package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/client"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/dao"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/metrics"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
	"github.com/lk2023060901/gachalogs/pkg/config"
	"github.com/lk2023060901/gachalogs/pkg/logger"
)

const (
	msgForceUnavailable = "（强制刷新不可用！"
	msgNeedURL          = "请至少给我一次抽卡记录链接！"
)

// URLResolver 得到可用的抽卡记录链接
type URLResolver interface {
	Resolve(ctx context.Context, existingURL, rawCredential string) (*client.Resolution, error)
}

// LogCollector 抓取所有卡池
type LogCollector interface {
	CollectAll(ctx context.Context, signedURL string) (*client.Collection, error)
}

// Uploader 导出文件上传
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// GachaLogService 抽卡记录服务
type GachaLogService struct {
	cfg       *Config
	logger    logger.Logger
	metrics   *metrics.GachaMetrics
	configs   *dao.ConfigDAO
	logs      *dao.LogsDAO
	resolver  URLResolver
	collector LogCollector
	uploader  Uploader
	locker    *AccountLocker
	group     singleflight.Group
	expire    atomic.Int64
	http      *http.Client
	now       func() time.Time
}

// NewGachaLogService 创建服务，uploader 可为 nil
func NewGachaLogService(
	cfg *Config,
	l logger.Logger,
	m *metrics.GachaMetrics,
	configs *dao.ConfigDAO,
	logs *dao.LogsDAO,
	resolver URLResolver,
	collector LogCollector,
	uploader Uploader,
) (*GachaLogService, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge service config: %w", err)
	}
	if newCfg.LockTTL <= newCfg.RefreshTimeout {
		newCfg.LockTTL = 2 * newCfg.RefreshTimeout
	}
	s := &GachaLogService{
		cfg:       newCfg,
		logger:    logger.OrDefault(l).Named("service.gachalog"),
		metrics:   m,
		configs:   configs,
		logs:      logs,
		resolver:  resolver,
		collector: collector,
		uploader:  uploader,
		locker:    NewAccountLocker(newCfg.LockTTL),
		http:      &http.Client{Timeout: newCfg.ImportFetchTimeout},
		now:       time.Now,
	}
	s.expire.Store(int64(newCfg.Expire))
	return s, nil
}

// Close 释放账号锁
func (s *GachaLogService) Close() error {
	return s.locker.Close()
}

// SetExpire 热更新缓存有效期
func (s *GachaLogService) SetExpire(d time.Duration) {
	if d > 0 {
		s.expire.Store(int64(d))
	}
}

// Expire 当前缓存有效期
func (s *GachaLogService) Expire() time.Duration {
	return time.Duration(s.expire.Load())
}

// IsSuperuser 是否为超级用户
func (s *GachaLogService) IsSuperuser(userID string) bool {
	return slices.Contains(s.cfg.Superusers, userID)
}

func (s *GachaLogService) authorize(operatorID, userID string) error {
	if operatorID == "" || operatorID == userID || s.IsSuperuser(operatorID) {
		return nil
	}
	return fmt.Errorf("%w: %s cannot access %s", ErrForbidden, operatorID, userID)
}

// loadConfig 不存在时返回 nil
func (s *GachaLogService) loadConfig(ctx context.Context, userID string) (*model.UserConfig, error) {
	cfg, err := s.configs.Get(ctx, userID)
	if errors.Is(err, dao.ErrNotFound) {
		return nil, nil
	}
	return cfg, err
}

// loadLogs 没有记录文件时返回空记录
func (s *GachaLogService) loadLogs(ctx context.Context, cfg *model.UserConfig) (model.Logs, error) {
	if cfg == nil {
		return model.Logs{}, nil
	}
	return s.loadLogsAt(ctx, cfg.Logs)
}

func (s *GachaLogService) loadLogsAt(ctx context.Context, path string) (model.Logs, error) {
	if path == "" {
		return model.Logs{}, nil
	}
	logs, err := s.logs.Load(ctx, path)
	if errors.Is(err, dao.ErrNotFound) {
		return model.Logs{}, nil
	}
	return logs, err
}

// LogsView 本地记录
type LogsView struct {
	UserID    string
	AccountID string
	Time      int64
	Logs      model.Logs
}

// GetLogs 读取本地记录
func (s *GachaLogService) GetLogs(ctx context.Context, userID string) (*LogsView, error) {
	cfg, err := s.loadConfig(ctx, userID)
	if err != nil {
		return nil, err
	}
	logs, err := s.loadLogs(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if logs.Total() == 0 {
		return nil, fmt.Errorf("%w: user %s", ErrNoLogs, userID)
	}
	return &LogsView{
		UserID:    userID,
		AccountID: logs.AccountID(),
		Time:      cfg.Time,
		Logs:      logs,
	}, nil
}

// DeleteResult 删除结果
type DeleteResult struct {
	AccountID string
	Message   string
}

// Delete 删除记录或整个配置，操作他人需要超级用户
func (s *GachaLogService) Delete(ctx context.Context, operatorID, userID string, scope dao.DeleteScope, confirm bool) (*DeleteResult, error) {
	if scope == dao.DeleteNone {
		scope = dao.DeleteRecords
	}
	target := "抽卡记录"
	if scope == dao.DeleteAll {
		target = "全部配置"
	}

	// 1. 读取配置
	cfg, err := s.loadConfig(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: config of user %s", dao.ErrNotFound, userID)
	}

	// 2. 权限与确认
	if err := s.authorize(operatorID, userID); err != nil {
		return nil, err
	}
	if !confirm {
		return nil, fmt.Errorf("%w: 将要删除用户 %s 的%s，确认无误请附带确认参数重试", ErrConfirmRequired, userID, target)
	}

	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// 加锁后重新读取
	if cfg, err = s.loadConfig(ctx, userID); err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: config of user %s", dao.ErrNotFound, userID)
	}
	logsLock := &heldLock{locker: s.locker}
	defer logsLock.release()
	if err := logsLock.switchTo(ctx, s.logsKey(cfg.Logs, "")); err != nil {
		return nil, err
	}

	// 3. 删除记录文件
	tips := "QQ" + userID
	var uid string
	switch {
	case cfg.Logs != "":
		logs, err := s.loadLogs(ctx, cfg)
		if err != nil {
			return nil, err
		}
		uid = logs.AccountID()
		if err := s.logs.Delete(ctx, cfg.Logs); err != nil {
			return nil, err
		}
		if uid != "" {
			tips += "-UID" + uid
		}
	case scope != dao.DeleteAll:
		return nil, fmt.Errorf("%w: 还没有 QQ%s 的记录哦！", ErrNoLogs, userID)
	}

	// 4. 更新配置
	if _, err := s.configs.Save(ctx, userID, cfg, dao.SaveOptions{Delete: scope}); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "gacha logs deleted", "operator", operatorID, "user_id", userID, "uid", uid, "scope", target)
	return &DeleteResult{
		AccountID: uid,
		Message:   fmt.Sprintf("删除了 %s 的%s缓存！", tips, target),
	}, nil
}
