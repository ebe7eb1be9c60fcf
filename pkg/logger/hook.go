package logger

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Redacted 脱敏后的占位值
const Redacted = "***REDACTED***"

// Hook 日志钩子
type Hook interface {
	// OnWrite 写入前回调，可原地修改 fields；返回 false 丢弃该条日志
	OnWrite(entry zapcore.Entry, fields []zapcore.Field) bool
}

// HookFunc 函数式 Hook
type HookFunc func(entry zapcore.Entry, fields []zapcore.Field) bool

func (f HookFunc) OnWrite(entry zapcore.Entry, fields []zapcore.Field) bool {
	return f(entry, fields)
}

// HookedCore 带钩子的 Core
type HookedCore struct {
	zapcore.Core
	hooks []Hook
}

// NewHookedCore 创建带钩子的 Core
func NewHookedCore(core zapcore.Core, hooks ...Hook) zapcore.Core {
	return &HookedCore{Core: core, hooks: hooks}
}

func (h *HookedCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if h.Enabled(entry.Level) {
		return ce.AddCore(entry, h)
	}
	return ce
}

func (h *HookedCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	for _, hook := range h.hooks {
		if !hook.OnWrite(entry, fields) {
			return nil
		}
	}
	return h.Core.Write(entry, fields)
}

// With 固定字段在编码进子 core 之前同样经过钩子
func (h *HookedCore) With(fields []zapcore.Field) zapcore.Core {
	cloned := make([]zapcore.Field, len(fields))
	copy(cloned, fields)
	for _, hook := range h.hooks {
		hook.OnWrite(zapcore.Entry{}, cloned)
	}
	return &HookedCore{Core: h.Core.With(cloned), hooks: h.hooks}
}

var authkeyParam = regexp.MustCompile(`(?i)(authkey=)[^&\s"]+`)

// RedactURL 抹掉 URL 中的 authkey 参数值
func RedactURL(raw string) string {
	return authkeyParam.ReplaceAllString(raw, "${1}"+Redacted)
}

// SensitiveDataHook 凭证脱敏：命中 key 的字段整体替换，字符串字段中的 authkey 参数被抹掉
func SensitiveDataHook(sensitiveKeys []string) Hook {
	keys := make(map[string]struct{}, len(sensitiveKeys))
	for _, k := range sensitiveKeys {
		keys[strings.ToLower(k)] = struct{}{}
	}

	return HookFunc(func(_ zapcore.Entry, fields []zapcore.Field) bool {
		for i := range fields {
			if _, ok := keys[strings.ToLower(fields[i].Key)]; ok {
				fields[i] = zap.String(fields[i].Key, Redacted)
				continue
			}
			if fields[i].Type == zapcore.StringType && strings.Contains(strings.ToLower(fields[i].String), "authkey=") {
				fields[i].String = RedactURL(fields[i].String)
			}
		}
		return true
	})
}
