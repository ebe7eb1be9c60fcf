package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/client"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/dao"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
	"github.com/lk2023060901/gachalogs/pkg/logger"
)

const testUID = "100000001"

// rec 构造测试记录
func rec(gachaType, t, name string, seq int) model.PullRecord {
	return recOf(testUID, gachaType, t, name, seq)
}

func recOf(uid, gachaType, t, name string, seq int) model.PullRecord {
	return model.PullRecord{
		UID:       uid,
		GachaType: gachaType,
		ItemID:    "",
		Count:     "1",
		Time:      t,
		Name:      name,
		Lang:      "zh-cn",
		ItemType:  "角色",
		RankType:  "4",
		ID:        fmt.Sprintf("16%016d", seq),
	}
}

func five(r model.PullRecord) model.PullRecord {
	r.RankType = "5"
	return r
}

func mustLog(t *testing.T, records ...model.PullRecord) model.CategoryLog {
	t.Helper()
	cl, err := model.NewCategoryLog(records)
	require.NoError(t, err)
	return cl
}

// fakeResolver 固定返回结果
type fakeResolver struct {
	mu    sync.Mutex
	res   *client.Resolution
	err   error
	calls []string
}

func (f *fakeResolver) Resolve(_ context.Context, existingURL, rawCredential string) (*client.Resolution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, existingURL+"|"+rawCredential)
	return f.res, f.err
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeCollector 固定返回结果，gate 非空时阻塞到关闭
type fakeCollector struct {
	mu      sync.Mutex
	logs    model.Logs
	err     error
	calls   int
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeCollector) CollectAll(ctx context.Context, _ string) (*client.Collection, error) {
	f.mu.Lock()
	f.calls++
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &client.Collection{AccountID: f.logs.AccountID(), Logs: f.logs.Clone()}, nil
}

func (f *fakeCollector) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeUploader 记录上传内容
type fakeUploader struct {
	name string
	data []byte
}

func (f *fakeUploader) Upload(_ context.Context, name string, data []byte, _ string) (string, error) {
	f.name = name
	f.data = data
	return "https://files.example.com/" + name, nil
}

type fixture struct {
	svc       *GachaLogService
	configs   *dao.ConfigDAO
	logs      *dao.LogsDAO
	resolver  *fakeResolver
	collector *fakeCollector
	uploader  *fakeUploader
	now       time.Time
}

func newFixture(t *testing.T, cfg *Config) *fixture {
	t.Helper()
	dcfg := &dao.Config{DataDir: t.TempDir()}
	configs, err := dao.NewConfigDAO(dcfg, logger.NewNoop(), nil)
	require.NoError(t, err)
	logs, err := dao.NewLogsDAO(dcfg, logger.NewNoop(), nil)
	require.NoError(t, err)

	f := &fixture{
		configs:   configs,
		logs:      logs,
		resolver:  &fakeResolver{},
		collector: &fakeCollector{},
		uploader:  &fakeUploader{},
		now:       time.Date(2024, 3, 1, 12, 0, 0, 0, model.Location),
	}
	svc, err := NewGachaLogService(cfg, logger.NewNoop(), nil, configs, logs, f.resolver, f.collector, f.uploader)
	require.NoError(t, err)
	svc.now = func() time.Time { return f.now }
	f.svc = svc

	t.Cleanup(func() {
		_ = svc.Close()
		_ = logs.Close()
	})
	return f
}

// seed 写入本地配置与记录
func (f *fixture) seed(t *testing.T, userID string, cfg *model.UserConfig, logs model.Logs) {
	t.Helper()
	ctx := context.Background()
	if logs != nil {
		path := f.logs.PathFor(logs.AccountID())
		_, err := f.logs.Save(ctx, path, logs)
		require.NoError(t, err)
		cfg.Logs = path
	}
	_, err := f.configs.Save(ctx, userID, cfg, dao.SaveOptions{})
	require.NoError(t, err)
}

func (f *fixture) config(t *testing.T, userID string) *model.UserConfig {
	t.Helper()
	cfg, err := f.configs.Get(context.Background(), userID)
	require.NoError(t, err)
	return cfg
}
