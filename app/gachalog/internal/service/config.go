package service

import "time"

// Config 抽卡记录服务配置
type Config struct {
	// Expire 记录缓存有效期，期内不重复抓取
	Expire time.Duration `mapstructure:"expire" json:"expire" yaml:"expire"`
	// RefreshTimeout 单次刷新的总时限
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout" json:"refresh_timeout" yaml:"refresh_timeout"`
	// LockTTL 空闲账号锁的回收时间，需大于 RefreshTimeout
	LockTTL time.Duration `mapstructure:"lock_ttl" json:"lock_ttl" yaml:"lock_ttl"`
	// Superusers 可管理他人配置的用户
	Superusers []string `mapstructure:"superusers" json:"superusers" yaml:"superusers"`
	// ImportFetchTimeout 下载导入文件的超时
	ImportFetchTimeout time.Duration `mapstructure:"import_fetch_timeout" json:"import_fetch_timeout" yaml:"import_fetch_timeout"`
	// MaxImportBytes 导入文件大小上限
	MaxImportBytes int64 `mapstructure:"max_import_bytes" json:"max_import_bytes" yaml:"max_import_bytes"`
	// ExportApp UIGF 导出应用名
	ExportApp string `mapstructure:"export_app" json:"export_app" yaml:"export_app"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Expire:             time.Hour,
		RefreshTimeout:     10 * time.Minute,
		LockTTL:            30 * time.Minute,
		ImportFetchTimeout: 10 * time.Second,
		MaxImportBytes:     32 << 20,
		ExportApp:          "gachalogs",
	}
}
