// Package model 抽卡记录数据模型
package model

import "fmt"

// Category 卡池类型，取值为官方 gacha_type 代码
type Category string

const (
	CategoryStarter    Category = "100"
	CategoryStandard   Category = "200"
	CategoryCharacter  Category = "301"
	CategoryWeapon     Category = "302"
	CategoryCharacter2 Category = "400" // 角色活动祈愿-2，记录归入 301
)

var categoryNames = map[Category]string{
	CategoryStarter:    "新手祈愿",
	CategoryStandard:   "常驻祈愿",
	CategoryCharacter:  "角色活动祈愿",
	CategoryWeapon:     "武器活动祈愿",
	CategoryCharacter2: "角色活动祈愿-2",
}

var declared = []Category{CategoryStarter, CategoryStandard, CategoryCharacter, CategoryWeapon}

// Categories 需要抓取与存储的卡池，顺序固定
func Categories() []Category {
	out := make([]Category, len(declared))
	copy(out, declared)
	return out
}

// ParseCategory 解析卡池代码
func ParseCategory(code string) (Category, error) {
	c := Category(code)
	if _, ok := categoryNames[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, code)
	}
	return c, nil
}

// Canonical 别名卡池折叠到主卡池
func (c Category) Canonical() Category {
	if c == CategoryCharacter2 {
		return CategoryCharacter
	}
	return c
}

// Name 卡池中文名
func (c Category) Name() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return string(c)
}

func (c Category) String() string {
	return string(c)
}
