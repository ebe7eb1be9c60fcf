package model

import (
	"encoding/json"
	"fmt"
)

// Logs 一个账号的全部卡池记录
type Logs map[Category]CategoryLog

// Get 缺失的卡池返回空记录
func (l Logs) Get(c Category) CategoryLog {
	return l[c.Canonical()]
}

// AccountID 按固定卡池顺序取第一条记录的 UID
func (l Logs) AccountID() string {
	for _, c := range Categories() {
		if r, ok := l[c].Newest(); ok && r.UID != "" {
			return r.UID
		}
	}
	return ""
}

// Total 记录总数
func (l Logs) Total() int {
	n := 0
	for _, cl := range l {
		n += cl.Len()
	}
	return n
}

// Validate 所有带 UID 的记录必须属于同一账号
func (l Logs) Validate() error {
	uid := ""
	for _, c := range Categories() {
		for _, r := range l[c].records {
			if r.UID == "" {
				continue
			}
			if uid == "" {
				uid = r.UID
				continue
			}
			if r.UID != uid {
				return fmt.Errorf("%w: %s has uid %s, expected %s", ErrAccountMismatch, c.Name(), r.UID, uid)
			}
		}
	}
	return nil
}

// Clone 浅拷贝映射，CategoryLog 本身不可变
func (l Logs) Clone() Logs {
	out := make(Logs, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// MarshalJSON 以卡池代码为键，固定卡池总是输出（可能为空数组）
func (l Logs) MarshalJSON() ([]byte, error) {
	out := make(map[string]CategoryLog, len(declared))
	for _, c := range Categories() {
		out[string(c)] = l[c]
	}
	return json.Marshal(out)
}

// UnmarshalJSON 未知卡池代码报错，400 归并到 301
func (l *Logs) UnmarshalJSON(data []byte) error {
	var raw map[string]CategoryLog
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Logs, len(declared))
	var alias CategoryLog
	for code, cl := range raw {
		c, err := ParseCategory(code)
		if err != nil {
			return err
		}
		if c == CategoryCharacter2 {
			alias = cl
			continue
		}
		out[c] = cl
	}
	if alias.Len() > 0 {
		merged, err := out[CategoryCharacter].Insert(alias.records...)
		if err != nil {
			return err
		}
		out[CategoryCharacter] = merged
	}
	*l = out
	return nil
}
