package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/client"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/dao"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
)

// RefreshRequest 刷新请求，URL 与 Cookie 为空时使用已保存的值
type RefreshRequest struct {
	UserID string
	URL    string
	Cookie string
	Force  bool
}

// RefreshResult 刷新结果
type RefreshResult struct {
	UserID    string
	AccountID string
	Message   string
	Logs      model.Logs
	Added     map[model.Category]int
	// Cached 未访问接口，直接返回本地记录
	Cached bool
}

// Refresh 获取最新抽卡记录并与本地记录合并。
// 同一用户不带新凭证的并发请求合并为一次。
func (s *GachaLogService) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResult, error) {
	if req.URL != "" || req.Cookie != "" {
		return s.refresh(ctx, req)
	}
	key := fmt.Sprintf("%s:%t", req.UserID, req.Force)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.refresh(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*RefreshResult), nil
}

func (s *GachaLogService) refresh(ctx context.Context, req RefreshRequest) (res *RefreshResult, err error) {
	start := s.now()
	defer func() {
		result := "success"
		switch {
		case err != nil:
			result = "failed"
		case res.Cached:
			result = "cached"
		}
		s.metrics.RecordRefresh(result, time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RefreshTimeout)
	defer cancel()

	unlock, err := s.locker.Lock(ctx, userLockKey(req.UserID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// 1. 读取配置，锁住对应记录文件后读取本地记录
	stored, err := s.loadConfig(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	cfg := stored.Clone()
	if cfg == nil {
		cfg = &model.UserConfig{GameBiz: model.DefaultGameBiz}
	}
	logsLock := &heldLock{locker: s.locker}
	defer logsLock.release()
	if err := logsLock.switchTo(ctx, s.logsKey(cfg.Logs, cfg.GameUID)); err != nil {
		return nil, err
	}
	local, err := s.loadLogs(ctx, stored)
	if err != nil {
		return nil, err
	}
	cached := func(msg string) *RefreshResult {
		return &RefreshResult{
			UserID:    req.UserID,
			AccountID: local.AccountID(),
			Message:   msg,
			Logs:      local,
			Cached:    true,
		}
	}

	// 2. 缓存有效期内且没有新输入时直接返回
	hasInput := req.URL != "" || req.Cookie != ""
	if !req.Force && !hasInput && local.Total() > 0 && cfg.Fresh(s.now(), s.Expire()) {
		return cached(""), nil
	}

	logURL := req.URL
	if logURL == "" {
		logURL = cfg.URL
	}
	cookie := req.Cookie
	if cookie == "" {
		cookie = cfg.Cookie
	}
	if logURL == "" && cookie == "" {
		if local.Total() == 0 {
			return nil, client.ErrNoURL
		}
		if req.Force {
			return cached(msgForceUnavailable), nil
		}
		return cached(msgNeedURL), nil
	}

	// 3. 得到可用链接，失败时保存已换到的凭证并清除失效链接
	if req.Cookie != "" {
		cfg.Cookie = req.Cookie
	}
	resolution, err := s.resolver.Resolve(ctx, logURL, cookie)
	if err != nil {
		cfg.URL = ""
		switch {
		case resolution != nil && resolution.Cookie != "":
			cfg.Cookie = resolution.Cookie
		case client.FailedAt(err, client.StageToken):
			// 新 Cookie 无效，保留原有凭证
			cfg.Cookie = ""
			if stored != nil {
				cfg.Cookie = stored.Cookie
			}
		}
		if stored != nil || resolution != nil {
			s.saveConfig(ctx, req.UserID, cfg)
		}
		s.logger.WarnContext(ctx, "resolve gacha log url failed", "user_id", req.UserID, "error", err)
		return nil, err
	}
	cfg.URL = resolution.URL
	if resolution.Cookie != "" {
		cfg.Cookie = resolution.Cookie
	}
	if role := resolution.Role; role != nil {
		cfg.GameBiz, cfg.GameUID, cfg.Region = role.GameBiz, role.GameUID, role.Region
	}
	if err := logsLock.switchTo(ctx, s.logsKey(cfg.Logs, cfg.GameUID)); err != nil {
		return nil, err
	}

	// 4. 抓取全部卡池
	col, err := s.collector.CollectAll(ctx, resolution.URL)
	if err != nil {
		s.saveConfig(ctx, req.UserID, cfg)
		return nil, err
	}

	// 5. 合并
	merged, err := Merge(local, col.Logs)
	if err != nil {
		return nil, err
	}
	if merged.Replaced {
		s.logger.WarnContext(ctx, "account changed, local logs replaced",
			"user_id", req.UserID, "old_uid", local.AccountID(), "new_uid", merged.AccountID)
	}

	// 6. 落盘：账号变化时写入新账号的文件，不覆盖旧账号的记录
	path := cfg.Logs
	if path == "" || merged.Replaced {
		path = s.logs.PathFor(merged.AccountID)
		if merged, err = s.mergeInto(ctx, logsLock, path, merged, col.Logs); err != nil {
			return nil, err
		}
	}
	uid, err := s.logs.Save(ctx, path, merged.Logs)
	if err != nil {
		return nil, err
	}
	cfg.Logs = path
	cfg.Time = s.now().Unix()
	cfg.GameUID = uid
	if cfg.Region == "" {
		cfg.Region = model.DefaultRegion(uid)
	}
	if cfg.GameBiz == "" {
		cfg.GameBiz = model.DefaultGameBiz
	}
	if _, err := s.configs.Save(ctx, req.UserID, cfg, dao.SaveOptions{}); err != nil {
		return nil, err
	}

	s.metrics.RecordAdded(merged.Added)
	s.logger.InfoContext(ctx, "gacha logs refreshed",
		"user_id", req.UserID, "uid", uid, "added", merged.TotalAdded(), "total", merged.Logs.Total())

	return &RefreshResult{
		UserID:    req.UserID,
		AccountID: uid,
		Message:   merged.Message,
		Logs:      merged.Logs,
		Added:     merged.Added,
	}, nil
}

// mergeInto 换到目标文件的锁，目标文件已有记录时把新抓取的记录并入其中
func (s *GachaLogService) mergeInto(ctx context.Context, logsLock *heldLock, path string, merged *MergeResult, fresh model.Logs) (*MergeResult, error) {
	if err := logsLock.switchTo(ctx, logsLockKey(path)); err != nil {
		return nil, err
	}
	existing, err := s.loadLogsAt(ctx, path)
	if err != nil {
		return nil, err
	}
	if existing.Total() == 0 {
		return merged, nil
	}
	out, err := Merge(existing, fresh)
	if err != nil {
		return nil, err
	}
	if merged.Replaced && !out.Replaced {
		out.Replaced = true
		out.Message = strings.TrimSpace(MsgAccountMismatch + "\n" + out.Message)
	}
	return out, nil
}

// logsKey 记录文件锁键：已有文件路径优先，其次按游戏 UID 推导；都没有时为空
func (s *GachaLogService) logsKey(path, uid string) string {
	if path == "" && uid != "" {
		path = s.logs.PathFor(uid)
	}
	if path == "" {
		return ""
	}
	return logsLockKey(path)
}

// saveConfig 尽力保存，失败只记日志
func (s *GachaLogService) saveConfig(ctx context.Context, userID string, cfg *model.UserConfig) {
	if _, err := s.configs.Save(context.WithoutCancel(ctx), userID, cfg, dao.SaveOptions{}); err != nil {
		s.logger.ErrorContext(ctx, "failed to save config", "user_id", userID, "error", err)
	}
}

// UserMessage 错误对应的用户提示
func UserMessage(err error) string {
	var stageErr *client.StageError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &stageErr):
		return stageErr.Message()
	case errors.Is(err, client.ErrNoURL):
		return msgNeedURL
	case errors.Is(err, client.ErrInvalidURL):
		return "未找到有效的抽卡记录链接！"
	case errors.Is(err, client.ErrAuthKeyExpired):
		return "链接 AuthKey 可能失效"
	case errors.Is(err, client.ErrNoRecords):
		return "获取抽卡记录失败"
	case errors.Is(err, client.ErrFetchTimeout):
		return "获取抽卡记录超时，请稍后重试"
	case errors.Is(err, model.ErrAccountMismatch), errors.Is(err, client.ErrDataIntegrity):
		return "抽卡记录数据异常"
	case errors.Is(err, ErrNoLogs), errors.Is(err, dao.ErrNotFound):
		return "暂无本地抽卡记录！"
	case errors.Is(err, ErrForbidden):
		return "你没有权限操作该用户的抽卡记录！"
	case errors.Is(err, context.DeadlineExceeded):
		return "获取抽卡记录超时，请稍后重试"
	default:
		return "获取最新抽卡记录失败！"
	}
}
