package model

import "fmt"

// rec 构造测试记录，seq 为 0 时不带 id
func rec(uid, gachaType, t, name string, seq int) PullRecord {
	r := PullRecord{
		UID:       uid,
		GachaType: gachaType,
		Count:     "1",
		Time:      t,
		Name:      name,
		Lang:      "zh-cn",
		ItemType:  "角色",
		RankType:  "4",
	}
	if seq > 0 {
		r.ID = fmt.Sprintf("16%016d", seq)
	}
	return r
}
