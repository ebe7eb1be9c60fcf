package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// CategoryLog 单个卡池的记录，始终从新到旧排列。
// 零值是空记录；所有修改都返回新值，不改动接收者。
type CategoryLog struct {
	records []PullRecord
}

// NewCategoryLog 校验顺序后构造，records 会被复制
func NewCategoryLog(records []PullRecord) (CategoryLog, error) {
	if err := checkOrder(records); err != nil {
		return CategoryLog{}, err
	}
	return CategoryLog{records: clone(records)}, nil
}

// SortCategoryLog 按从新到旧稳定排序后构造，用于导入等来源顺序不可信的场景
func SortCategoryLog(records []PullRecord) CategoryLog {
	out := clone(records)
	sort.SliceStable(out, func(i, j int) bool {
		return CompareRecency(out[i], out[j]) > 0
	})
	return CategoryLog{records: out}
}

func checkOrder(records []PullRecord) error {
	for i := 1; i < len(records); i++ {
		if CompareRecency(records[i-1], records[i]) < 0 {
			return fmt.Errorf("%w: #%d (%s %s) is newer than #%d (%s %s)", ErrOrderViolation,
				i, records[i].Time, records[i].Name, i-1, records[i-1].Time, records[i-1].Name)
		}
	}
	return nil
}

func clone(records []PullRecord) []PullRecord {
	if len(records) == 0 {
		return nil
	}
	out := make([]PullRecord, len(records))
	copy(out, records)
	return out
}

func (l CategoryLog) Len() int {
	return len(l.records)
}

// Records 记录副本
func (l CategoryLog) Records() []PullRecord {
	return clone(l.records)
}

// At 第 i 条记录，0 为最新
func (l CategoryLog) At(i int) PullRecord {
	return l.records[i]
}

// Newest 最新一条
func (l CategoryLog) Newest() (PullRecord, bool) {
	if len(l.records) == 0 {
		return PullRecord{}, false
	}
	return l.records[0], true
}

// Oldest 最早一条
func (l CategoryLog) Oldest() (PullRecord, bool) {
	if len(l.records) == 0 {
		return PullRecord{}, false
	}
	return l.records[len(l.records)-1], true
}

// Keys 内容键集合
func (l CategoryLog) Keys() map[RecordKey]struct{} {
	keys := make(map[RecordKey]struct{}, len(l.records))
	for _, r := range l.records {
		keys[r.Key()] = struct{}{}
	}
	return keys
}

// Prepend 在头部追加一段更新的记录，records 本身须从新到旧且不旧于当前最新一条
func (l CategoryLog) Prepend(records ...PullRecord) (CategoryLog, error) {
	if len(records) == 0 {
		return l, nil
	}
	if err := checkOrder(records); err != nil {
		return l, err
	}
	if head, ok := l.Newest(); ok && CompareRecency(records[len(records)-1], head) < 0 {
		return l, fmt.Errorf("%w: prepended run ends at %s, head is %s", ErrOrderViolation,
			records[len(records)-1].Time, head.Time)
	}
	out := make([]PullRecord, 0, len(records)+len(l.records))
	out = append(out, records...)
	out = append(out, l.records...)
	return CategoryLog{records: out}, nil
}

// Insert 将一段从新到旧的记录按时间归并进来；新旧无法区分时新记录排在前面。
// 新记录全部不旧于当前最新一条时等价于 Prepend。
func (l CategoryLog) Insert(records ...PullRecord) (CategoryLog, error) {
	if len(records) == 0 {
		return l, nil
	}
	if err := checkOrder(records); err != nil {
		return l, err
	}
	out := make([]PullRecord, 0, len(records)+len(l.records))
	i, j := 0, 0
	for i < len(records) && j < len(l.records) {
		if CompareRecency(records[i], l.records[j]) >= 0 {
			out = append(out, records[i])
			i++
		} else {
			out = append(out, l.records[j])
			j++
		}
	}
	out = append(out, records[i:]...)
	out = append(out, l.records[j:]...)
	return CategoryLog{records: out}, nil
}

// Append 在尾部追加更早的记录，用于分页抓取
func (l CategoryLog) Append(records ...PullRecord) (CategoryLog, error) {
	if len(records) == 0 {
		return l, nil
	}
	if err := checkOrder(records); err != nil {
		return l, err
	}
	if tail, ok := l.Oldest(); ok && CompareRecency(tail, records[0]) < 0 {
		return l, fmt.Errorf("%w: appended run starts at %s, tail is %s", ErrOrderViolation,
			records[0].Time, tail.Time)
	}
	out := make([]PullRecord, 0, len(records)+len(l.records))
	out = append(out, l.records...)
	out = append(out, records...)
	return CategoryLog{records: out}, nil
}

// Equal 逐条比较
func (l CategoryLog) Equal(other CategoryLog) bool {
	if len(l.records) != len(other.records) {
		return false
	}
	for i := range l.records {
		if l.records[i] != other.records[i] {
			return false
		}
	}
	return true
}

func (l CategoryLog) MarshalJSON() ([]byte, error) {
	if l.records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.records)
}

// UnmarshalJSON 读入时校验顺序
func (l *CategoryLog) UnmarshalJSON(data []byte) error {
	var records []PullRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	parsed, err := NewCategoryLog(records)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
