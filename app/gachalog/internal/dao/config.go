package dao

import (
	"time"

	"github.com/lk2023060901/gachalogs/pkg/cache/lru"
)

// Config 文件存储配置
type Config struct {
	// DataDir 配置与记录文件所在目录
	DataDir string `mapstructure:"data_dir" json:"data_dir" yaml:"data_dir"`
	// ConfigFile 用户配置文件名
	ConfigFile string `mapstructure:"config_file" json:"config_file" yaml:"config_file"`
	// LogsCache 记录文件读缓存，MaxSize 为 0 时不限条目
	LogsCache lru.Config `mapstructure:"logs_cache" json:"logs_cache" yaml:"logs_cache"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		DataDir:    "data/gachalogs",
		ConfigFile: "config.json",
		LogsCache: lru.Config{
			MaxSize:         128,
			DefaultTTL:      10 * time.Minute,
			CleanupInterval: time.Minute,
		},
	}
}
