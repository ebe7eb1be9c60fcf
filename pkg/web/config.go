package web

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Config Web 服务配置
type Config struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxBodyBytes 请求体上限，导入文件走这里
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`

	EnableTLS bool   `mapstructure:"enable_tls"`
	CertFile  string `mapstructure:"cert_file"`
	KeyFile   string `mapstructure:"key_file"`

	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// RateLimitConfig 按客户端 IP 限流
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxClients        int           `mapstructure:"max_clients"`
	ClientTTL         time.Duration `mapstructure:"client_ttl"`
	SkipPaths         []string      `mapstructure:"skip_paths"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		Mode:            gin.ReleaseMode,
		ReadTimeout:     15 * time.Second,
		// 刷新接口会同步抓取多页记录
		WriteTimeout:    5 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
		MaxBodyBytes:    32 << 20,
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
			MaxClients:        10000,
			ClientTTL:         10 * time.Minute,
			SkipPaths:         []string{"/health", "/metrics"},
		},
	}
}
