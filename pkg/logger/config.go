package logger

import (
	"errors"
	"time"
)

// Level 日志等级
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Format 日志格式
type Format string

const (
	JSONFormat    Format = "json"
	ConsoleFormat Format = "console"
)

// RotationType 轮换类型
type RotationType string

const (
	RotationBySize RotationType = "size"
	RotationByTime RotationType = "time"
)

// Config 日志配置
type Config struct {
	Level  Level  `mapstructure:"level"`
	Format Format `mapstructure:"format"`

	EnableConsole bool   `mapstructure:"enable_console"`
	EnableFile    bool   `mapstructure:"enable_file"`
	OutputPath    string `mapstructure:"output_path"`

	TimeFormat string `mapstructure:"time_format"`

	Rotation RotationConfig `mapstructure:"rotation"`

	EnableStacktrace bool  `mapstructure:"enable_stacktrace"`
	StacktraceLevel  Level `mapstructure:"stacktrace_level"`

	Development bool `mapstructure:"development"`

	// RedactKeys 这些字段的值在输出前会被替换，cookie、authkey 等凭证不落盘
	RedactKeys []string `mapstructure:"redact_keys"`

	GlobalFields map[string]interface{} `mapstructure:"global_fields"`
}

// RotationConfig 轮换配置
type RotationConfig struct {
	Type RotationType `mapstructure:"type"`

	// 按大小轮换 (lumberjack)
	MaxSize    int  `mapstructure:"max_size"` // MB
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"` // 天
	Compress   bool `mapstructure:"compress"`

	// 按时间轮换 (file-rotatelogs)
	RotationTime    time.Duration `mapstructure:"rotation_time"`
	MaxAgeTime      time.Duration `mapstructure:"max_age_time"`
	RotationPattern string        `mapstructure:"rotation_pattern"`
}

// DefaultRedactKeys 默认脱敏字段
func DefaultRedactKeys() []string {
	return []string{"cookie", "stoken", "login_ticket", "authkey", "cookie_token", "ltoken"}
}

// DefaultConfig 默认配置：仅控制台输出
func DefaultConfig() *Config {
	return &Config{
		Level:         InfoLevel,
		Format:        ConsoleFormat,
		EnableConsole: true,
		TimeFormat:    "2006-01-02 15:04:05",
		Rotation: RotationConfig{
			Type:            RotationBySize,
			MaxSize:         100,
			MaxBackups:      5,
			MaxAge:          7,
			Compress:        true,
			RotationTime:    24 * time.Hour,
			MaxAgeTime:      7 * 24 * time.Hour,
			RotationPattern: ".%Y%m%d",
		},
		EnableStacktrace: true,
		StacktraceLevel:  ErrorLevel,
		RedactKeys:       DefaultRedactKeys(),
		GlobalFields:     make(map[string]interface{}),
	}
}

// Validate 返回的错误
var (
	ErrInvalidOutputPath = errors.New("logger: enable_file requires output_path")
	ErrNoOutputEnabled   = errors.New("logger: neither console nor file output enabled")
	ErrInvalidRotation   = errors.New("logger: time rotation requires rotation_time")
)

// Validate 验证配置
func (c *Config) Validate() error {
	if c.EnableFile && c.OutputPath == "" {
		return ErrInvalidOutputPath
	}
	if !c.EnableConsole && !c.EnableFile {
		return ErrNoOutputEnabled
	}
	if c.EnableFile && c.Rotation.Type == RotationByTime && c.Rotation.RotationTime <= 0 {
		return ErrInvalidRotation
	}
	return nil
}
