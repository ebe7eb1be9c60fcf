package service

import "errors"

var (
	// ErrNoLogs 没有本地抽卡记录
	ErrNoLogs = errors.New("no local gacha logs")
	// ErrForbidden 无权操作他人数据
	ErrForbidden = errors.New("permission denied")
	// ErrConfirmRequired 删除操作需要确认
	ErrConfirmRequired = errors.New("confirmation required")
	// ErrInvalidImport 导入文件格式错误
	ErrInvalidImport = errors.New("invalid import file")
	// ErrCorruptBatch 某时刻的记录既非单抽也非十连
	ErrCorruptBatch = errors.New("batch is neither a single nor a ten pull")
	// ErrUnsupportedRegion UID 所属服务器不支持
	ErrUnsupportedRegion = errors.New("unsupported region")
	// ErrImportRejected 导入目标已绑定其他 UID
	ErrImportRejected = errors.New("import rejected")
	// ErrUploadDisabled 未配置上传
	ErrUploadDisabled = errors.New("upload disabled")
)
