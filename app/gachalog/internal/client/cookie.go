package client

import "strings"

// 账号 ID 的各种别名，任意一个出现即可
var accountIDKeys = []string{"stuid", "login_uid", "ltuid", "account_id", "ltuid_v2", "account_id_v2"}

// Credential 从 Cookie 中提取的字段
type Credential struct {
	AccountID   string
	SToken      string
	LoginTicket string
	Mid         string
	CookieToken string
	LToken      string
}

// ParseCookie 解析 "k=v; k=v" 形式的 Cookie，无法识别的字段忽略
func ParseCookie(raw string) Credential {
	fields := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k != "" && v != "" {
			fields[k] = v
		}
	}

	var c Credential
	for _, k := range accountIDKeys {
		if v := fields[k]; v != "" {
			c.AccountID = v
			break
		}
	}
	c.SToken = first(fields, "stoken", "stoken_v2")
	c.LoginTicket = fields["login_ticket"]
	c.Mid = first(fields, "mid", "account_mid_v2")
	c.CookieToken = first(fields, "cookie_token", "cookie_token_v2")
	c.LToken = first(fields, "ltoken", "ltoken_v2")
	return c
}

func first(fields map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := fields[k]; v != "" {
			return v
		}
	}
	return ""
}

// SessionCookie 换取 authkey 所需的最小 Cookie，也是失败时回传给调用方保存的部分凭证
func (c Credential) SessionCookie() string {
	parts := []string{"stuid=" + c.AccountID, "stoken=" + c.SToken}
	if c.Mid != "" {
		parts = append(parts, "mid="+c.Mid)
	}
	return strings.Join(parts, ";")
}
