package dao

import "errors"

var (
	// ErrNotFound 文件或配置项不存在
	ErrNotFound = errors.New("not found")
	// ErrCorruptFile 文件内容无法解析
	ErrCorruptFile = errors.New("corrupt file")
	// ErrOutsideDataDir 路径不在数据目录内
	ErrOutsideDataDir = errors.New("path outside data dir")
	// ErrNilConfig 非删除写入时配置为空
	ErrNilConfig = errors.New("nil config")
)
