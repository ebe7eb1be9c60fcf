package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/client"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/dao"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/service"
	"github.com/lk2023060901/gachalogs/pkg/logger"
)

const testUID = "100000001"

func rec(gachaType, t, name string, seq int) model.PullRecord {
	return model.PullRecord{
		UID:       testUID,
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

func sampleLogs(t *testing.T) model.Logs {
	t.Helper()
	cl, err := model.NewCategoryLog([]model.PullRecord{
		rec("301", "2024-01-02 10:00:00", "乙", 2),
		rec("301", "2024-01-01 10:00:00", "甲", 1),
	})
	require.NoError(t, err)
	return model.Logs{model.CategoryCharacter: cl}
}

type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, existingURL, _ string) (*client.Resolution, error) {
	return &client.Resolution{URL: existingURL + "&signed=1"}, nil
}

type stubCollector struct {
	logs model.Logs
}

func (s stubCollector) CollectAll(context.Context, string) (*client.Collection, error) {
	return &client.Collection{AccountID: s.logs.AccountID(), Logs: s.logs}, nil
}

type testEnv struct {
	engine  *gin.Engine
	configs *dao.ConfigDAO
	logs    *dao.LogsDAO
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dcfg := &dao.Config{DataDir: t.TempDir()}
	configs, err := dao.NewConfigDAO(dcfg, logger.NewNoop(), nil)
	require.NoError(t, err)
	logs, err := dao.NewLogsDAO(dcfg, logger.NewNoop(), nil)
	require.NoError(t, err)

	svc, err := service.NewGachaLogService(&service.Config{Superusers: []string{"admin"}},
		logger.NewNoop(), nil, configs, logs, stubResolver{}, stubCollector{logs: sampleLogs(t)}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = svc.Close()
		_ = logs.Close()
	})

	engine := gin.New()
	NewGachaLogHandler(svc, logger.NewNoop()).Register(engine)
	return &testEnv{engine: engine, configs: configs, logs: logs}
}

// seed 写入用户配置与记录
func (e *testEnv) seed(t *testing.T, userID string) {
	t.Helper()
	ctx := context.Background()
	path := e.logs.PathFor(testUID)
	_, err := e.logs.Save(ctx, path, sampleLogs(t))
	require.NoError(t, err)
	_, err = e.configs.Save(ctx, userID, &model.UserConfig{
		URL:     "https://hk4e-api.mihoyo.com/log?authkey=secret",
		Logs:    path,
		GameUID: testUID,
	}, dao.SaveOptions{})
	require.NoError(t, err)
}

func (e *testEnv) do(method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

