package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/metrics"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
	"github.com/lk2023060901/gachalogs/pkg/cache/lru"
	"github.com/lk2023060901/gachalogs/pkg/config"
	"github.com/lk2023060901/gachalogs/pkg/logger"
)

const (
	logsFilePrefix = "gachalogs-"
	logsFileExt    = ".json"
	backupExt      = ".bak"
)

// LogsDAO 记录文件访问对象，每个账号一个文件。
// 并发写由上层的账号锁串行化。
type LogsDAO struct {
	dir     string
	cache   *lru.LRU[string, model.Logs]
	logger  logger.Logger
	metrics *metrics.GachaMetrics
}

// NewLogsDAO 创建记录 DAO
func NewLogsDAO(cfg *Config, l logger.Logger, m *metrics.GachaMetrics) (*LogsDAO, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge dao config: %w", err)
	}
	if err := os.MkdirAll(newCfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &LogsDAO{
		dir:     newCfg.DataDir,
		cache:   lru.New[string, model.Logs](&newCfg.LogsCache),
		logger:  logger.OrDefault(l).Named("dao.logs"),
		metrics: m,
	}, nil
}

// PathFor 账号的记录文件路径
func (d *LogsDAO) PathFor(uid string) string {
	return filepath.Join(d.dir, logsFilePrefix+uid+logsFileExt)
}

// BackupPathFor 备份文件路径：同名，扩展名换成 .bak
func BackupPathFor(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + backupExt
}

// Load 读取并校验记录文件
func (d *LogsDAO) Load(ctx context.Context, path string) (model.Logs, error) {
	if err := d.check(ctx, path); err != nil {
		return nil, err
	}
	if logs, ok := d.cache.Get(path); ok {
		d.metrics.RecordCacheHit("logs")
		return logs.Clone(), nil
	}
	d.metrics.RecordCacheMiss("logs")

	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var logs model.Logs
	if err := json.Unmarshal(data, &logs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptFile, path, err)
	}
	if err := logs.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptFile, path, err)
	}

	d.cache.Set(path, logs)
	return logs.Clone(), nil
}

// Save 整文件覆盖写入，返回记录所属账号
func (d *LogsDAO) Save(ctx context.Context, path string, logs model.Logs) (string, error) {
	if err := d.check(ctx, path); err != nil {
		return "", err
	}
	if err := logs.Validate(); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(logs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal logs: %w", err)
	}

	start := time.Now()
	err = writeFileAtomic(path, data, 0o644)
	d.metrics.RecordStoreWrite("logs", err == nil, time.Since(start))
	if err != nil {
		d.cache.Delete(path)
		d.logger.ErrorContext(ctx, "failed to write logs", "path", path, "error", err)
		return "", fmt.Errorf("failed to write logs: %w", err)
	}

	d.cache.Set(path, logs.Clone())
	uid := logs.AccountID()
	d.logger.DebugContext(ctx, "logs saved", "uid", uid, "total", logs.Total())
	return uid, nil
}

// Delete 删除记录文件，不存在时不报错
func (d *LogsDAO) Delete(ctx context.Context, path string) error {
	if err := d.check(ctx, path); err != nil {
		return err
	}
	d.cache.Delete(path)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete logs: %w", err)
	}
	return nil
}

// Backup 复制到同名 .bak 文件，返回备份路径
func (d *LogsDAO) Backup(ctx context.Context, path string) (string, error) {
	if err := d.check(ctx, path); err != nil {
		return "", err
	}
	data, err := readFile(path)
	if err != nil {
		return "", err
	}
	dst := BackupPathFor(path)
	if err := writeFileAtomic(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to backup logs: %w", err)
	}
	d.logger.InfoContext(ctx, "logs backed up", "path", path, "backup", dst)
	return dst, nil
}

// Exists 记录文件是否存在
func (d *LogsDAO) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Close 停止缓存清理
func (d *LogsDAO) Close() error {
	return d.cache.Close()
}

func (d *LogsDAO) check(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: empty logs path", ErrNotFound)
	}
	if !within(d.dir, path) {
		return fmt.Errorf("%w: %s", ErrOutsideDataDir, path)
	}
	return nil
}
