package logger

import "sync"

var (
	defaultLogger Logger
	defaultMu     sync.RWMutex
)

// SetDefault 设置进程级默认 logger，仅供 main 在启动时调用
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Default 获取默认 logger，未设置时懒加载仅控制台输出的实例
func Default() Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		bl, err := New(DefaultConfig())
		if err != nil {
			defaultLogger = NewNoop()
		} else {
			defaultLogger = bl
		}
	}
	return defaultLogger
}

// OrDefault 组件构造时 logger 可为 nil
func OrDefault(l Logger) Logger {
	if l == nil {
		return Default()
	}
	return l
}
