package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDefaultRegion 测试服务器区域推断
func TestDefaultRegion(t *testing.T) {
	assert.Equal(t, "cn_gf01", DefaultRegion("100000001"))
	assert.Equal(t, "cn_gf01", DefaultRegion("200000001"))
	assert.Equal(t, "cn_qd01", DefaultRegion("500000001"))

	c := NewUserConfig("500000001")
	assert.Equal(t, DefaultGameBiz, c.GameBiz)
	assert.Equal(t, "cn_qd01", c.Region)
	assert.True(t, c.IsEmpty())
}

// TestUserConfigClearRecords 测试只清除记录字段
func TestUserConfigClearRecords(t *testing.T) {
	c := &UserConfig{URL: "u", Cookie: "c", Logs: "l", Time: 1, GameUID: "1", Region: "r", GameBiz: "hk4e_cn"}
	c.ClearRecords()
	assert.Equal(t, &UserConfig{URL: "u", Cookie: "c", GameBiz: "hk4e_cn"}, c)
	assert.False(t, c.IsEmpty())
}

// TestUserConfigFresh 测试缓存时效
func TestUserConfigFresh(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := &UserConfig{Time: now.Add(-30 * time.Minute).Unix()}
	assert.True(t, c.Fresh(now, time.Hour))
	assert.False(t, c.Fresh(now, 10*time.Minute))
	assert.False(t, (&UserConfig{}).Fresh(now, time.Hour))
}
