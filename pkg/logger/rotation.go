package logger

import (
	"io"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewRotationWriter 按配置创建文件 writer：size 走 lumberjack，time 走 file-rotatelogs
func NewRotationWriter(cfg *RotationConfig, outputPath string) (io.Writer, error) {
	if cfg.Type == RotationByTime {
		return newTimeRotationWriter(cfg, outputPath)
	}
	return &lumberjack.Logger{
		Filename:   outputPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}, nil
}

func newTimeRotationWriter(cfg *RotationConfig, outputPath string) (io.Writer, error) {
	pattern := cfg.RotationPattern
	if pattern == "" {
		pattern = ".%Y%m%d"
	}

	opts := []rotatelogs.Option{
		rotatelogs.WithLinkName(outputPath),
		rotatelogs.WithRotationTime(cfg.RotationTime),
	}
	if cfg.MaxAgeTime > 0 {
		opts = append(opts, rotatelogs.WithMaxAge(cfg.MaxAgeTime))
	}
	return rotatelogs.New(outputPath+pattern, opts...)
}
