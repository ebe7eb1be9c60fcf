package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/gachalogs/pkg/logger"
)

// Options 应用选项
type Options struct {
	ID           string
	Name         string
	StopTimeout  time.Duration
	Logger       logger.Logger
	NamedLoggers map[string]logger.Logger
}

// Option 配置函数
type Option func(*Options)

// DefaultOptions 默认选项
func DefaultOptions() Options {
	return Options{
		ID:          uuid.New().String(),
		Name:        AppName,
		StopTimeout: 30 * time.Second,
	}
}

// WithLogger 设置应用日志
func WithLogger(l logger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithNamedLoggers 设置具名日志
func WithNamedLoggers(loggers map[string]logger.Logger) Option {
	return func(o *Options) { o.NamedLoggers = loggers }
}

// WithID 设置实例 ID
func WithID(id string) Option {
	return func(o *Options) { o.ID = id }
}

// WithName 设置应用名称
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithStopTimeout 设置优雅停止超时
func WithStopTimeout(t time.Duration) Option {
	return func(o *Options) { o.StopTimeout = t }
}
