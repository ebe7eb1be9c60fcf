package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/metrics"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
	"github.com/lk2023060901/gachalogs/pkg/config"
	"github.com/lk2023060901/gachalogs/pkg/logger"
)

// DeleteScope 删除范围
type DeleteScope int

const (
	// DeleteNone 正常写入
	DeleteNone DeleteScope = iota
	// DeleteRecords 只清除记录相关字段，保留链接与 Cookie
	DeleteRecords
	// DeleteAll 删除整个配置项
	DeleteAll
)

// ParseDeleteScope 解析 records/all
func ParseDeleteScope(s string) (DeleteScope, bool) {
	switch s {
	case "records":
		return DeleteRecords, true
	case "all":
		return DeleteAll, true
	default:
		return DeleteNone, false
	}
}

// SaveOptions 写入选项
type SaveOptions struct {
	// Force 允许写入空配置
	Force  bool
	Delete DeleteScope
}

// ConfigDAO 用户配置文件访问对象，所有用户共用一个 JSON 文件
type ConfigDAO struct {
	path    string
	mu      sync.Mutex
	logger  logger.Logger
	metrics *metrics.GachaMetrics
}

// NewConfigDAO 创建配置 DAO，数据目录不存在时创建
func NewConfigDAO(cfg *Config, l logger.Logger, m *metrics.GachaMetrics) (*ConfigDAO, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge dao config: %w", err)
	}
	if err := os.MkdirAll(newCfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &ConfigDAO{
		path:    filepath.Join(newCfg.DataDir, newCfg.ConfigFile),
		logger:  logger.OrDefault(l).Named("dao.config"),
		metrics: m,
	}, nil
}

// Path 配置文件路径
func (d *ConfigDAO) Path() string {
	return d.path
}

// Get 读取单个用户配置
func (d *ConfigDAO) Get(ctx context.Context, userID string) (*model.UserConfig, error) {
	all, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	cfg, ok := all[userID]
	if !ok || cfg == nil {
		return nil, fmt.Errorf("%w: config of user %s", ErrNotFound, userID)
	}
	return cfg, nil
}

// All 读取全部配置，文件不存在时返回空集合
func (d *ConfigDAO) All(ctx context.Context) (map[string]*model.UserConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load()
}

// FindByUID 查找绑定了指定游戏 UID 的用户
func (d *ConfigDAO) FindByUID(ctx context.Context, uid string) (string, *model.UserConfig, error) {
	all, err := d.All(ctx)
	if err != nil {
		return "", nil, err
	}
	for userID, cfg := range all {
		if cfg != nil && cfg.GameUID == uid {
			return userID, cfg, nil
		}
	}
	return "", nil, fmt.Errorf("%w: config bound to uid %s", ErrNotFound, uid)
}

// Save 写入单个用户配置，返回是否真正写入。
// 空配置在没有 Force 且不是删除时跳过，避免覆盖已有数据；nil 配置只用于删除。
func (d *ConfigDAO) Save(ctx context.Context, userID string, cfg *model.UserConfig, opts SaveOptions) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if opts.Delete == DeleteNone && cfg == nil {
		return false, fmt.Errorf("%w: user %s", ErrNilConfig, userID)
	}
	if opts.Delete == DeleteNone && !opts.Force && cfg.IsEmpty() {
		d.logger.WarnContext(ctx, "skip writing blank config", "user_id", userID)
		return false, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	all, err := d.load()
	if err != nil {
		return false, err
	}

	switch opts.Delete {
	case DeleteAll:
		if _, ok := all[userID]; !ok {
			return false, fmt.Errorf("%w: config of user %s", ErrNotFound, userID)
		}
		delete(all, userID)
	case DeleteRecords:
		base := cfg
		if base == nil {
			base = all[userID]
		}
		if base == nil {
			return false, fmt.Errorf("%w: config of user %s", ErrNotFound, userID)
		}
		cleared := base.Clone()
		cleared.ClearRecords()
		all[userID] = cleared
	default:
		all[userID] = cfg.Clone()
	}

	if err := d.write(all); err != nil {
		return false, err
	}
	d.logger.DebugContext(ctx, "config saved", "user_id", userID, "delete", opts.Delete)
	return true, nil
}

func (d *ConfigDAO) load() (map[string]*model.UserConfig, error) {
	data, err := readFile(d.path)
	if errors.Is(err, ErrNotFound) {
		return make(map[string]*model.UserConfig), nil
	}
	if err != nil {
		return nil, err
	}

	all := make(map[string]*model.UserConfig)
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptFile, d.path, err)
	}
	return all, nil
}

func (d *ConfigDAO) write(all map[string]*model.UserConfig) error {
	start := time.Now()
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	err = writeFileAtomic(d.path, data, 0o600)
	d.metrics.RecordStoreWrite("config", err == nil, time.Since(start))
	if err != nil {
		d.logger.Error("failed to write config", "path", d.path, "error", err)
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
