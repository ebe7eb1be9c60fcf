package service

import (
	"fmt"
	"strings"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
)

// MsgAccountMismatch 新旧记录不属于同一账号
const MsgAccountMismatch = "抽卡记录 UID 不一致，已使用最新获取的记录"

// MergeResult 合并结果
type MergeResult struct {
	AccountID string
	Logs      model.Logs
	Added     map[model.Category]int
	Message   string
	// Replaced 账号不一致时整体替换为新记录
	Replaced bool
}

// Merge 将新抓取的记录合并进本地记录。
// 以 (time, name) 判重，本地缺失的新记录按原顺序放到最前，本地独有的记录保留。
func Merge(local, fresh model.Logs) (*MergeResult, error) {
	freshUID := fresh.AccountID()
	localUID := local.AccountID()

	// 1. 账号不一致时不合并
	if localUID != "" && freshUID != "" && localUID != freshUID {
		added := make(map[model.Category]int)
		for _, c := range model.Categories() {
			added[c] = fresh.Get(c).Len()
		}
		return &MergeResult{
			AccountID: freshUID,
			Logs:      fresh.Clone(),
			Added:     added,
			Message:   MsgAccountMismatch,
			Replaced:  true,
		}, nil
	}

	// 2. 逐卡池合并
	merged := make(model.Logs, len(model.Categories()))
	added := make(map[model.Category]int)
	var lines []string
	for _, c := range model.Categories() {
		loc := local.Get(c)
		got := loc.Keys()

		var missing []model.PullRecord
		for _, r := range fresh.Get(c).Records() {
			if _, ok := got[r.Key()]; !ok {
				missing = append(missing, r)
			}
		}

		out, err := loc.Insert(missing...)
		if err != nil {
			return nil, fmt.Errorf("merge %s: %w", c.Name(), err)
		}
		merged[c] = out
		added[c] = len(missing)
		if len(missing) > 0 {
			lines = append(lines, addedLine(c, len(missing)))
		}
	}

	uid := freshUID
	if uid == "" {
		uid = localUID
	}
	return &MergeResult{
		AccountID: uid,
		Logs:      merged,
		Added:     added,
		Message:   strings.Join(lines, "\n"),
	}, nil
}

// TotalAdded 新增记录总数
func (r *MergeResult) TotalAdded() int {
	n := 0
	for _, v := range r.Added {
		n += v
	}
	return n
}

func addedLine(c model.Category, n int) string {
	return fmt.Sprintf("新增 %d 条%s记录..", n, c.Name())
}
