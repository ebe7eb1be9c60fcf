package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseCategory 测试卡池解析与别名折叠
func TestParseCategory(t *testing.T) {
	tests := []struct {
		code      string
		canonical Category
		name      string
		wantErr   bool
	}{
		{"100", CategoryStarter, "新手祈愿", false},
		{"200", CategoryStandard, "常驻祈愿", false},
		{"301", CategoryCharacter, "角色活动祈愿", false},
		{"302", CategoryWeapon, "武器活动祈愿", false},
		{"400", CategoryCharacter, "角色活动祈愿-2", false},
		{"500", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c, err := ParseCategory(tt.code)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.canonical, c.Canonical())
			assert.Equal(t, tt.name, c.Name())
		})
	}
}

// TestCategoriesOrder 测试卡池顺序固定且返回副本
func TestCategoriesOrder(t *testing.T) {
	cs := Categories()
	assert.Equal(t, []Category{CategoryStarter, CategoryStandard, CategoryCharacter, CategoryWeapon}, cs)
	cs[0] = CategoryWeapon
	assert.Equal(t, CategoryStarter, Categories()[0])
}
