package model

import "errors"

var (
	// ErrUnknownCategory 未知卡池代码
	ErrUnknownCategory = errors.New("unknown gacha category")
	// ErrInvalidRecord 记录缺少必需字段或字段格式错误
	ErrInvalidRecord = errors.New("invalid pull record")
	// ErrOrderViolation 记录不是从新到旧排列
	ErrOrderViolation = errors.New("category log is not newest-first")
	// ErrAccountMismatch 同一份记录中出现多个 UID
	ErrAccountMismatch = errors.New("pull records belong to different accounts")
)
