package logger

import "context"

var _ Logger = NoopLogger{}

// NoopLogger 丢弃全部输出，测试和未注入日志的组件使用
type NoopLogger struct{}

// NewNoop 返回 NoopLogger
func NewNoop() NoopLogger { return NoopLogger{} }

func (NoopLogger) Debug(string, ...interface{}) {}
func (NoopLogger) Info(string, ...interface{}) {}
func (NoopLogger) Warn(string, ...interface{}) {}
func (NoopLogger) Error(string, ...interface{}) {}

func (NoopLogger) DebugContext(context.Context, string, ...interface{}) {}
func (NoopLogger) InfoContext(context.Context, string, ...interface{}) {}
func (NoopLogger) WarnContext(context.Context, string, ...interface{}) {}
func (NoopLogger) ErrorContext(context.Context, string, ...interface{}) {}

func (n NoopLogger) Named(string) Logger { return n }
func (n NoopLogger) WithFields(...interface{}) Logger { return n }
func (NoopLogger) Sync() error { return nil }
