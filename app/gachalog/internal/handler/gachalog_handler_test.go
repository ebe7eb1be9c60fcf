package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
	weberrors "github.com/lk2023060901/gachalogs/pkg/web/errors"
)

// 刷新成功返回合并后的记录
func TestRefresh(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/users/10001/refresh", []byte(`{"url": "https://example.com/log?authkey=a"}`), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, weberrors.CodeOK, resp.Code)

	var data RefreshResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, testUID, data.UID)
	assert.Equal(t, 2, data.Added[model.CategoryCharacter])
	assert.Equal(t, 2, data.Logs.Get(model.CategoryCharacter).Len())
}

// 没有链接时提示用户
func TestRefreshWithoutURL(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/users/10001/refresh", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, weberrors.CodeInvalidParams, resp.Code)
	assert.Equal(t, "请至少给我一次抽卡记录链接！", resp.Message)

	w = env.do(http.MethodPost, "/api/v1/users/10001/refresh", []byte(`{"url": 1}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// 记录接口支持 ETag
func TestLogsETag(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/users/10001/logs", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.seed(t, "10001")
	w = env.do(http.MethodGet, "/api/v1/users/10001/logs", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var data LogsResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, testUID, data.UID)
	var logs model.Logs
	require.NoError(t, json.Unmarshal(data.Logs, &logs))
	assert.Equal(t, 2, logs.Total())

	w = env.do(http.MethodGet, "/api/v1/users/10001/logs", nil, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestConfig(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "10001")

	w := env.do(http.MethodGet, "/api/v1/users/10001/config", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")

	w = env.do(http.MethodGet, "/api/v1/users/10001/config?reveal=url", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "secret")

	w = env.do(http.MethodGet, "/api/v1/users/10001/config?reveal=url", nil, map[string]string{HeaderOperatorID: "20002"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		operator   string
		wantStatus int
		wantMsg    string
	}{
		{name: "bad scope", query: "?scope=everything&confirm=true", wantStatus: http.StatusBadRequest},
		{name: "needs confirm", query: "?scope=records", wantStatus: http.StatusConflict},
		{name: "forbidden", query: "?confirm=true", operator: "20002", wantStatus: http.StatusForbidden},
		{name: "records", query: "?confirm=true", wantStatus: http.StatusOK, wantMsg: "删除了 QQ10001-UID100000001 的抽卡记录缓存！"},
		{name: "all by superuser", query: "?scope=all&confirm=1", operator: "admin", wantStatus: http.StatusOK, wantMsg: "删除了 QQ10001-UID100000001 的全部配置缓存！"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.seed(t, "10001")

			headers := map[string]string{}
			if tt.operator != "" {
				headers[HeaderOperatorID] = tt.operator
			}
			w := env.do(http.MethodDelete, "/api/v1/users/10001"+tt.query, nil, headers)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantMsg != "" {
				var data DeleteResponse
				require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
				assert.Equal(t, tt.wantMsg, data.Message)
				assert.Equal(t, testUID, data.UID)
			}
		})
	}
}

func uigfBody(t *testing.T, times ...string) []byte {
	t.Helper()
	list := make([]map[string]string, 0, len(times))
	for i, at := range times {
		r := rec("200", at, "常驻", 100+i)
		list = append(list, map[string]string{
			"uid": r.UID, "gacha_type": r.GachaType, "item_id": "", "count": "1", "time": r.Time,
			"name": r.Name, "lang": "zh-cn", "item_type": r.ItemType, "rank_type": r.RankType,
			"id": r.ID, "uigf_gacha_type": "200",
		})
	}
	data, err := json.Marshal(map[string]any{"info": map[string]string{"uid": testUID, "uigf_version": "v2.2"}, "list": list})
	require.NoError(t, err)
	return data
}

func TestImport(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "10001")

	w := env.do(http.MethodPost, "/api/v1/users/10001/import", uigfBody(t, "2024-02-01 10:00:00"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data ImportResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "10001", data.UserID)
	assert.Equal(t, "uigf", data.Format)
	assert.True(t, data.Backup)
	assert.Equal(t, 1, data.Added[model.CategoryStandard])

	// 同一时刻两条，既非单抽也非十连
	w = env.do(http.MethodPost, "/api/v1/users/10001/import", uigfBody(t, "2024-02-02 10:00:00", "2024-02-02 10:00:00"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Message, "既非单抽也非十连")

	w = env.do(http.MethodPost, "/api/v1/users/10001/import", []byte("not json"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "10001")

	w := env.do(http.MethodGet, "/api/v1/users/10001/export", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "UIGF-100000001-")
	var uigf model.UIGF
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uigf))
	assert.Equal(t, testUID, uigf.Info.UID)
	assert.Len(t, uigf.List, 2)

	w = env.do(http.MethodGet, "/api/v1/users/10001/export?upload=true", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/v1/users/10001/export", nil, map[string]string{HeaderOperatorID: "20002"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "10001")

	w := env.do(http.MethodGet, "/api/v1/users/10001/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		UID        string `json:"uid"`
		Categories []struct {
			Category string `json:"category"`
			Total    int    `json:"total"`
			Pity     int    `json:"pity"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, testUID, data.UID)
	require.Len(t, data.Categories, 4)
	assert.Equal(t, "301", data.Categories[2].Category)
	assert.Equal(t, 2, data.Categories[2].Total)
	assert.Equal(t, 2, data.Categories[2].Pity)
}
