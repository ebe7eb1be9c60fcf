package app

import (
	"sync"

	"github.com/lk2023060901/gachalogs/pkg/logger"
)

// LoggerRegistry 具名日志注册表
type LoggerRegistry struct {
	mu      sync.RWMutex
	loggers map[string]logger.Logger
}

func NewLoggerRegistry() *LoggerRegistry {
	return &LoggerRegistry{loggers: make(map[string]logger.Logger)}
}

func (r *LoggerRegistry) Register(name string, l logger.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggers[name] = l
}

// Get 不存在时返回 nil
func (r *LoggerRegistry) Get(name string) logger.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loggers[name]
}

func (r *LoggerRegistry) SyncAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.loggers {
		_ = l.Sync()
	}
}

// BuildLoggers 按配置构建具名日志，配置缺省字段沿用 base
func BuildLoggers(base *logger.Config, configs map[string]*logger.Config) (map[string]logger.Logger, error) {
	out := make(map[string]logger.Logger, len(configs))
	for name, cfg := range configs {
		merged := *base
		if cfg != nil {
			merged = mergeLoggerConfig(base, cfg)
		}
		l, err := logger.New(&merged)
		if err != nil {
			return nil, err
		}
		out[name] = l.Named(name)
	}
	return out, nil
}

func mergeLoggerConfig(base, override *logger.Config) logger.Config {
	c := *base
	if override.Level != "" {
		c.Level = override.Level
	}
	if override.Format != "" {
		c.Format = override.Format
	}
	if override.OutputPath != "" {
		c.OutputPath = override.OutputPath
		c.EnableFile = true
	}
	return c
}
