package dao

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
	"github.com/lk2023060901/gachalogs/pkg/logger"
)

// rec 构造测试记录
func rec(uid, gachaType, t, name string, seq int) model.PullRecord {
	return model.PullRecord{
		UID:       uid,
		GachaType: gachaType,
		Count:     "1",
		Time:      t,
		Name:      name,
		Lang:      "zh-cn",
		ItemType:  "角色",
		RankType:  "4",
		ID:        fmt.Sprintf("16%016d", seq),
	}
}

func mustLog(t *testing.T, records ...model.PullRecord) model.CategoryLog {
	t.Helper()
	cl, err := model.NewCategoryLog(records)
	require.NoError(t, err)
	return cl
}

func newTestDAOs(t *testing.T) (*ConfigDAO, *LogsDAO) {
	t.Helper()
	return newTestDAOsAt(t, t.TempDir())
}

func newTestDAOsAt(t *testing.T, dir string) (*ConfigDAO, *LogsDAO) {
	t.Helper()
	cfg := &Config{DataDir: dir}
	cd, err := NewConfigDAO(cfg, logger.NewNoop(), nil)
	require.NoError(t, err)
	ld, err := NewLogsDAO(cfg, logger.NewNoop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ld.Close() })
	return cd, ld
}
