package app

import "github.com/google/wire"

// Components wire 收集到的服务与清理组件
type Components struct {
	Servers []Server
	Closers []Closer
}

// ProviderSet 导出给 wire 使用
var ProviderSet = wire.NewSet(NewApplication)

// NewApplication 将组件绑定到 BaseApp
func NewApplication(comps Components, opts ...Option) *BaseApp {
	a := NewBaseApp(opts...)
	a.AppendServer(comps.Servers...)
	a.AppendCloser(comps.Closers...)
	return a
}

// CloserFunc 函数式 Closer
type CloserFunc func() error

func (f CloserFunc) Close() error { return f() }
