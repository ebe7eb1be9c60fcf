package model

import (
	"strings"
	"time"
)

// DefaultGameBiz 国服业务标识
const DefaultGameBiz = "hk4e_cn"

// UserConfig 一个 bot 用户的抽卡记录配置
type UserConfig struct {
	URL     string `json:"url"`
	Cookie  string `json:"cookie"`
	Logs    string `json:"logs"`
	Time    int64  `json:"time"`
	GameBiz string `json:"game_biz"`
	GameUID string `json:"game_uid"`
	Region  string `json:"region"`
}

// NewUserConfig 导入时新建的配置
func NewUserConfig(uid string) *UserConfig {
	return &UserConfig{
		GameBiz: DefaultGameBiz,
		GameUID: uid,
		Region:  DefaultRegion(uid),
	}
}

// DefaultRegion 官服 UID 以 1、2 开头，其余视为 B 服
func DefaultRegion(uid string) string {
	if strings.HasPrefix(uid, "1") || strings.HasPrefix(uid, "2") {
		return "cn_gf01"
	}
	return "cn_qd01"
}

// IsEmpty 没有链接、Cookie、记录文件中的任何一项
func (c *UserConfig) IsEmpty() bool {
	return c == nil || (c.URL == "" && c.Cookie == "" && c.Logs == "")
}

// ClearRecords 清除记录相关字段，保留链接与 Cookie
func (c *UserConfig) ClearRecords() {
	c.Logs = ""
	c.Time = 0
	c.GameUID = ""
	c.Region = ""
}

// Fresh 距上次刷新未超过 expire
func (c *UserConfig) Fresh(now time.Time, expire time.Duration) bool {
	if c == nil || c.Time == 0 {
		return false
	}
	return now.Sub(time.Unix(c.Time, 0)) < expire
}

// Clone 复制
func (c *UserConfig) Clone() *UserConfig {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
