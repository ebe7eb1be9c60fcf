package service

import (
	"context"
	"strings"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/dao"
	"github.com/lk2023060901/gachalogs/pkg/logger"
)

// ConfigView 对外展示的配置，链接与 Cookie 默认脱敏
type ConfigView struct {
	URL     string `json:"url"`
	Cookie  string `json:"cookie"`
	Time    int64  `json:"time"`
	GameBiz string `json:"game_biz"`
	GameUID string `json:"game_uid"`
	Region  string `json:"region"`
	HasLogs bool   `json:"has_logs"`
}

// GetConfig 读取配置；reveal 为 url 或 cookie 时返回对应字段原文
func (s *GachaLogService) GetConfig(ctx context.Context, operatorID, userID, reveal string) (*ConfigView, error) {
	if err := s.authorize(operatorID, userID); err != nil {
		return nil, err
	}
	cfg, err := s.loadConfig(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, dao.ErrNotFound
	}

	view := &ConfigView{
		URL:     logger.RedactURL(cfg.URL),
		Cookie:  maskCookie(cfg.Cookie),
		Time:    cfg.Time,
		GameBiz: cfg.GameBiz,
		GameUID: cfg.GameUID,
		Region:  cfg.Region,
		HasLogs: cfg.Logs != "",
	}
	switch reveal {
	case "url":
		view.URL = cfg.URL
	case "cookie":
		view.Cookie = cfg.Cookie
	}
	return view, nil
}

// maskCookie 保留字段名，隐藏值
func maskCookie(cookie string) string {
	if cookie == "" {
		return ""
	}
	parts := strings.Split(cookie, ";")
	for i, p := range parts {
		if k, _, ok := strings.Cut(strings.TrimSpace(p), "="); ok {
			parts[i] = k + "=" + logger.Redacted
		}
	}
	return strings.Join(parts, ";")
}
