package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/client"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
)

func localLogs(t *testing.T) model.Logs {
	return model.Logs{model.CategoryCharacter: mustLog(t, rec("301", "2024-01-01 10:00:00", "甲", 1))}
}

// 缓存有效期内不访问接口
func TestRefreshFreshCache(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "10001", &model.UserConfig{URL: "https://old", Time: f.now.Add(-10 * time.Minute).Unix()}, localLogs(t))

	res, err := f.svc.Refresh(context.Background(), RefreshRequest{UserID: "10001"})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Empty(t, res.Message)
	assert.Equal(t, testUID, res.AccountID)
	assert.Zero(t, f.resolver.callCount())
	assert.Zero(t, f.collector.callCount())
}

// 没有可用链接时的各种回退
func TestRefreshWithoutCredentials(t *testing.T) {
	tests := []struct {
		name    string
		seed    bool
		force   bool
		wantErr error
		wantMsg string
	}{
		{name: "no cache", wantErr: client.ErrNoURL},
		{name: "cache", seed: true, wantMsg: msgNeedURL},
		{name: "force", seed: true, force: true, wantMsg: msgForceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			if tt.seed {
				f.seed(t, "10001", &model.UserConfig{Time: f.now.Add(-2 * time.Hour).Unix()}, localLogs(t))
			}

			res, err := f.svc.Refresh(context.Background(), RefreshRequest{UserID: "10001", Force: tt.force})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, msgNeedURL, UserMessage(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, res.Cached)
			assert.Equal(t, tt.wantMsg, res.Message)
			assert.Zero(t, f.resolver.callCount())
		})
	}
}

// 抓取成功后合并并写入记录与配置
func TestRefreshMergesAndPersists(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "10001", &model.UserConfig{URL: "https://old", Cookie: "stuid=1;stoken=s", Time: f.now.Add(-2 * time.Hour).Unix()}, localLogs(t))

	newer := rec("301", "2024-02-01 10:00:00", "乙", 2)
	f.resolver.res = &client.Resolution{URL: "https://signed", Cookie: "stuid=1;stoken=s2"}
	f.collector.logs = model.Logs{model.CategoryCharacter: mustLog(t, newer, rec("301", "2024-01-01 10:00:00", "甲", 1))}

	res, err := f.svc.Refresh(context.Background(), RefreshRequest{UserID: "10001"})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, testUID, res.AccountID)
	assert.Equal(t, 1, res.Added[model.CategoryCharacter])
	assert.Equal(t, "新增 1 条角色活动祈愿记录..", res.Message)
	assert.Equal(t, []string{"https://old|stuid=1;stoken=s"}, f.resolver.calls)

	cfg := f.config(t, "10001")
	assert.Equal(t, "https://signed", cfg.URL)
	assert.Equal(t, "stuid=1;stoken=s2", cfg.Cookie)
	assert.Equal(t, f.now.Unix(), cfg.Time)
	assert.Equal(t, testUID, cfg.GameUID)
	assert.Equal(t, "cn_gf01", cfg.Region)
	assert.Equal(t, model.DefaultGameBiz, cfg.GameBiz)

	stored, err := f.logs.Load(context.Background(), cfg.Logs)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Get(model.CategoryCharacter).Len())
	newest, _ := stored.Get(model.CategoryCharacter).Newest()
	assert.Equal(t, newer, newest)
}

// 新请求携带的链接优先于已保存的链接，且跳过缓存
func TestRefreshExplicitURLSkipsCache(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "10001", &model.UserConfig{URL: "https://old", Time: f.now.Unix()}, localLogs(t))
	f.resolver.res = &client.Resolution{URL: "https://signed"}
	f.collector.logs = localLogs(t)

	res, err := f.svc.Refresh(context.Background(), RefreshRequest{UserID: "10001", URL: "https://new"})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Zero(t, res.Added[model.CategoryCharacter])
	assert.Equal(t, []string{"https://new|"}, f.resolver.calls)
}

// 换取链接失败时保存已换到的凭证，清除失效链接
func TestRefreshResolveFailureKeepsPartialCookie(t *testing.T) {
	f := newFixture(t, nil)
	f.resolver.res = &client.Resolution{Cookie: "stuid=1;stoken=fresh"}
	f.resolver.err = &client.StageError{Stage: client.StageRole, Err: errors.New("retcode -100")}

	_, err := f.svc.Refresh(context.Background(), RefreshRequest{UserID: "10001", Cookie: "stuid=1;login_ticket=t"})
	var stageErr *client.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "获取游戏角色信息失败", UserMessage(err))

	cfg := f.config(t, "10001")
	assert.Empty(t, cfg.URL)
	assert.Equal(t, "stuid=1;stoken=fresh", cfg.Cookie)
}

// 已保存链接仍有效时也保存新发送的 Cookie
func TestRefreshPersistsNewCookieOnValidURL(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "10001", &model.UserConfig{URL: "https://valid", Cookie: "stuid=9;stoken=old"}, localLogs(t))
	f.resolver.res = &client.Resolution{URL: "https://valid"}
	f.collector.logs = localLogs(t)

	_, err := f.svc.Refresh(context.Background(), RefreshRequest{UserID: "10001", Cookie: "stuid=9;stoken=new"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://valid|stuid=9;stoken=new"}, f.resolver.calls)
	assert.Equal(t, "stuid=9;stoken=new", f.config(t, "10001").Cookie)
}

// 换取 stoken 失败时不保存无效的新 Cookie
func TestRefreshTokenFailureKeepsStoredCookie(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "10001", &model.UserConfig{URL: "https://old", Cookie: "stuid=9;stoken=old"}, localLogs(t))
	f.resolver.err = &client.StageError{Stage: client.StageToken, Err: client.ErrCredentialInvalid}

	_, err := f.svc.Refresh(context.Background(), RefreshRequest{UserID: "10001", Cookie: "login_uid=9;login_ticket=bad"})
	require.ErrorIs(t, err, client.ErrCredentialInvalid)

	cfg := f.config(t, "10001")
	assert.Empty(t, cfg.URL)
	assert.Equal(t, "stuid=9;stoken=old", cfg.Cookie)
}

// 抓取失败时仍保存新链接，不写记录
func TestRefreshCollectFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.resolver.res = &client.Resolution{URL: "https://signed"}
	f.collector.err = client.ErrFetchTimeout

	_, err := f.svc.Refresh(context.Background(), RefreshRequest{UserID: "10001", URL: "https://raw"})
	require.ErrorIs(t, err, client.ErrFetchTimeout)

	cfg := f.config(t, "10001")
	assert.Equal(t, "https://signed", cfg.URL)
	assert.Empty(t, cfg.Logs)
}

// 账号变化时写入新文件，旧账号的记录文件保留
func TestRefreshAccountChange(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "10001", &model.UserConfig{URL: "https://old"}, localLogs(t))
	oldPath := f.config(t, "10001").Logs

	f.resolver.res = &client.Resolution{URL: "https://signed"}
	f.collector.logs = model.Logs{model.CategoryWeapon: mustLog(t, recOf("500000003", "302", "2024-02-01 10:00:00", "丙", 3))}

	res, err := f.svc.Refresh(context.Background(), RefreshRequest{UserID: "10001"})
	require.NoError(t, err)
	assert.Equal(t, MsgAccountMismatch, res.Message)
	assert.Equal(t, "500000003", res.AccountID)

	cfg := f.config(t, "10001")
	assert.Equal(t, f.logs.PathFor("500000003"), cfg.Logs)
	assert.Equal(t, "cn_qd01", cfg.Region)
	assert.True(t, f.logs.Exists(oldPath))
}

// 账号变化且新账号已有记录文件时并入，不覆盖历史
func TestRefreshAccountChangeMergesExisting(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "10001", &model.UserConfig{URL: "https://old"}, localLogs(t))
	older := recOf("500000003", "302", "2023-12-01 10:00:00", "丁", 2)
	f.seed(t, "10002", &model.UserConfig{URL: "https://other"}, model.Logs{model.CategoryWeapon: mustLog(t, older)})

	newer := recOf("500000003", "302", "2024-02-01 10:00:00", "丙", 3)
	f.resolver.res = &client.Resolution{URL: "https://signed"}
	f.collector.logs = model.Logs{model.CategoryWeapon: mustLog(t, newer)}

	res, err := f.svc.Refresh(context.Background(), RefreshRequest{UserID: "10001"})
	require.NoError(t, err)
	assert.Contains(t, res.Message, MsgAccountMismatch)
	assert.Equal(t, 1, res.Added[model.CategoryWeapon])

	cfg := f.config(t, "10001")
	assert.Equal(t, f.logs.PathFor("500000003"), cfg.Logs)
	stored, err := f.logs.Load(context.Background(), cfg.Logs)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Get(model.CategoryWeapon).Len())
}

// 共用同一记录文件的不同用户串行抓取、合并与落盘
func TestRefreshSharedLogsSerialized(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "10001", &model.UserConfig{URL: "https://a"}, localLogs(t))
	shared := f.config(t, "10001").Logs
	f.seed(t, "10002", &model.UserConfig{URL: "https://b", Logs: shared}, nil)

	f.resolver.res = &client.Resolution{URL: "https://signed"}
	f.collector.logs = model.Logs{model.CategoryCharacter: mustLog(t,
		rec("301", "2024-02-01 10:00:00", "乙", 2),
		rec("301", "2024-01-01 10:00:00", "甲", 1),
	)}
	f.collector.gate = make(chan struct{})
	f.collector.entered = make(chan struct{}, 2)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []string{"10001", "10002"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Refresh(context.Background(), RefreshRequest{UserID: userID})
		}()
	}

	<-f.collector.entered
	assert.Never(t, func() bool { return len(f.collector.entered) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	close(f.collector.gate)
	wg.Wait()

	for i := range 2 {
		require.NoError(t, errs[i])
	}
	assert.Equal(t, 2, f.collector.callCount())
	stored, err := f.logs.Load(context.Background(), shared)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Get(model.CategoryCharacter).Len())
}

// 同一用户并发刷新只抓取一次
func TestRefreshConcurrentCallsCollapse(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "10001", &model.UserConfig{URL: "https://old"}, localLogs(t))
	f.resolver.res = &client.Resolution{URL: "https://signed"}
	f.collector.logs = localLogs(t)
	f.collector.gate = make(chan struct{})
	f.collector.entered = make(chan struct{}, 2)

	var wg sync.WaitGroup
	results := make([]*RefreshResult, 2)
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.svc.Refresh(context.Background(), RefreshRequest{UserID: "10001"})
		}()
	}

	<-f.collector.entered
	time.Sleep(20 * time.Millisecond)
	close(f.collector.gate)
	wg.Wait()

	for i := range 2 {
		require.NoError(t, errs[i])
		assert.Equal(t, testUID, results[i].AccountID)
	}
	assert.Equal(t, 1, f.collector.callCount())
}

// 超过刷新时限时放弃
func TestRefreshTimeout(t *testing.T) {
	f := newFixture(t, &Config{RefreshTimeout: 50 * time.Millisecond})
	f.resolver.res = &client.Resolution{URL: "https://signed"}
	f.collector.gate = make(chan struct{})

	_, err := f.svc.Refresh(context.Background(), RefreshRequest{UserID: "10001", URL: "https://raw"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, f.svc.cfg.LockTTL, f.svc.cfg.RefreshTimeout)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{client.ErrAuthKeyExpired, "链接 AuthKey 可能失效"},
		{client.ErrNoRecords, "获取抽卡记录失败"},
		{ErrNoLogs, "暂无本地抽卡记录！"},
		{ErrForbidden, "你没有权限操作该用户的抽卡记录！"},
		{errors.New("boom"), "获取最新抽卡记录失败！"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UserMessage(tt.err))
	}
}
