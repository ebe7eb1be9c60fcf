package client

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var pageURLPattern = regexp.MustCompile(`hk4e/event/.*#/log`)

// NormalizeURL 从用户输入中提取抽卡记录接口链接。
// 已是接口链接的直接使用；游戏内网页链接改写到接口地址，海外服走海外接口。
func NormalizeURL(raw, base, overseaBase string) (string, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "&amp;", "&"))
	if raw == "" {
		return "", ErrNoURL
	}
	if strings.Contains(raw, "getGachaLog") {
		return raw, nil
	}

	match := pageURLPattern.FindString(raw)
	if match == "" {
		return "", ErrInvalidURL
	}
	_, query, _ := strings.Cut(match, "?")
	target := base
	if strings.Contains(raw, "webstatic-sea") || strings.Contains(raw, "hk4e-api-os") {
		target = overseaBase
	}
	query = strings.TrimSuffix(query, "#/log")
	if query == "" {
		return target, nil
	}
	return target + "?" + query, nil
}

// CheckAuthKey 请求一次接口确认 authkey 仍然有效
func (c *apiClient) CheckAuthKey(ctx context.Context, rawURL string) error {
	env, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	return classify(env)
}

// classify data 为空时区分 authkey 失效与其他接口错误
func classify(env *envelope) error {
	if env.hasData() {
		return nil
	}
	if strings.Contains(strings.ToLower(env.Message), "authkey") {
		return fmt.Errorf("%w: %s", ErrAuthKeyExpired, env.Message)
	}
	return &APIError{Retcode: env.Retcode, Message: env.Message}
}

// patchQuery 在已有参数上覆盖字段
func patchQuery(rawURL string, fields map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	q := u.Query()
	for k, v := range fields {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String(), nil
}
