package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TimeLayout 记录时间格式，精确到秒
const TimeLayout = "2006-01-02 15:04:05"

// Location 记录时间所在时区（UTC+8）
var Location = time.FixedZone("CST", 8*3600)

var validate = validator.New(validator.WithRequiredStructEnabled())

// PullRecord 一次抽卡记录，JSON 字段与官方接口及 UIGF 保持一致
type PullRecord struct {
	UID       string `json:"uid" validate:"omitempty,numeric"`
	GachaType string `json:"gacha_type" validate:"required,oneof=100 200 301 302 400"`
	ItemID    string `json:"item_id"`
	Count     string `json:"count"`
	Time      string `json:"time" validate:"required,datetime=2006-01-02 15:04:05"`
	Name      string `json:"name" validate:"required"`
	Lang      string `json:"lang"`
	ItemType  string `json:"item_type" validate:"required"`
	RankType  string `json:"rank_type" validate:"required,oneof=3 4 5"`
	ID        string `json:"id" validate:"omitempty,numeric"`
}

// RecordKey 合并用的内容键：同一时刻同名物品视为同一条记录
type RecordKey struct {
	Time string
	Name string
}

// Validate 校验必需字段与格式
func (r PullRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// Key 内容键
func (r PullRecord) Key() RecordKey {
	return RecordKey{Time: r.Time, Name: r.Name}
}

// Category 记录所属卡池（已折叠别名）
func (r PullRecord) Category() (Category, error) {
	c, err := ParseCategory(r.GachaType)
	if err != nil {
		return "", err
	}
	return c.Canonical(), nil
}

// Timestamp 记录时间
func (r PullRecord) Timestamp() (time.Time, error) {
	return time.ParseInLocation(TimeLayout, r.Time, Location)
}

// Rank 星级，无法解析时为 0
func (r PullRecord) Rank() int {
	switch r.RankType {
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	default:
		return 0
	}
}

// CompareRecency 比较两条记录的新旧：a 更新返回 1，更旧返回 -1，无法区分返回 0。
// 先比时间（固定格式可直接按字典序），时间相同且双方都有 id 时比 id。
func CompareRecency(a, b PullRecord) int {
	if c := strings.Compare(a.Time, b.Time); c != 0 {
		return c
	}
	if a.ID == "" || b.ID == "" {
		return 0
	}
	return compareNumeric(a.ID, b.ID)
}

// compareNumeric 比较两个十进制数字串，不受 int64 位数限制
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) > len(b) {
			return 1
		}
		return -1
	}
	return strings.Compare(a, b)
}
