package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNoURL 既没有链接也没有可用的 Cookie
	ErrNoURL = errors.New("no gacha log url or credential")
	// ErrInvalidURL 输入中找不到抽卡记录链接
	ErrInvalidURL = errors.New("no valid gacha log url found")
	// ErrCredentialInvalid Cookie 缺少必要字段或无法换取 stoken
	ErrCredentialInvalid = errors.New("credential invalid")
	// ErrAuthKeyExpired authkey 过期或错误
	ErrAuthKeyExpired = errors.New("authkey expired")
	// ErrFetchTimeout 单页重试耗尽
	ErrFetchTimeout = errors.New("fetch retries exhausted")
	// ErrNoRecords 所有卡池都没有记录
	ErrNoRecords = errors.New("no records fetched")
	// ErrDataIntegrity 接口返回的数据不满足分页约定
	ErrDataIntegrity = errors.New("gacha log data integrity violated")
	// ErrRequestFailed 网络请求失败
	ErrRequestFailed = errors.New("request failed")
	// ErrResponseInvalid 响应无法解析
	ErrResponseInvalid = errors.New("invalid response")
)

// APIError 接口返回的非零 retcode
type APIError struct {
	Retcode int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: retcode=%d message=%q", e.Retcode, e.Message)
}

// Stage 凭证换取的阶段
type Stage string

const (
	StageURL     Stage = "url"
	StageToken   Stage = "token"
	StageRole    Stage = "role"
	StageAuthKey Stage = "authkey"
	StageVerify  Stage = "verify"
)

var stageMessages = map[Stage]string{
	StageURL:     "抽卡记录链接无效",
	StageToken:   "登录凭证换取 stoken 失败，请重新发送 Cookie",
	StageRole:    "获取游戏角色信息失败",
	StageAuthKey: "生成 authkey 失败",
	StageVerify:  "生成的抽卡记录链接校验失败",
}

// StageError 标记失败阶段，面向用户的提示只暴露阶段名
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Message 面向用户的提示
func (e *StageError) Message() string {
	if m, ok := stageMessages[e.Stage]; ok {
		return m
	}
	return string(e.Stage)
}

// FailedAt err 是否在指定阶段失败
func FailedAt(err error, stage Stage) bool {
	var stageErr *StageError
	return errors.As(err, &stageErr) && stageErr.Stage == stage
}
