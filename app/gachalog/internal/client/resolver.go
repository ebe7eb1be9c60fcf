package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lk2023060901/gachalogs/pkg/config"
	"github.com/lk2023060901/gachalogs/pkg/logger"
)

// Role 米游社绑定的游戏角色
type Role struct {
	GameBiz  string `json:"game_biz"`
	Region   string `json:"region"`
	GameUID  string `json:"game_uid"`
	Nickname string `json:"nickname"`
}

// Resolution 链接解析结果。
// 失败时 Cookie 仍可能非空：已换到 stoken 但后续阶段失败，调用方应保存它以便下次重试。
type Resolution struct {
	URL    string
	Cookie string
	Role   *Role
}

// Resolver 由已有链接或 Cookie 得到可用的抽卡记录链接
type Resolver struct {
	cfg    *Config
	api    *apiClient
	logger logger.Logger
	now    func() time.Time
}

// NewResolver 创建解析器，httpClient 为 nil 时按配置超时新建
func NewResolver(cfg *Config, httpClient *http.Client, l logger.Logger) (*Resolver, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	l = logger.OrDefault(l).Named("client.resolver")
	return &Resolver{
		cfg:    merged,
		api:    newAPIClient(merged, httpClient, l),
		logger: l,
		now:    time.Now,
	}, nil
}

// Resolve 依次尝试：已有链接 → Cookie 换 stoken → 角色信息 → authkey → 组装并校验链接
func (r *Resolver) Resolve(ctx context.Context, existingURL, rawCredential string) (*Resolution, error) {
	var normalized string
	if existingURL != "" {
		u, err := NormalizeURL(existingURL, r.cfg.GachaLogURL, r.cfg.GachaLogOverseaURL)
		switch {
		case err == nil:
			normalized = u
			checkErr := r.api.CheckAuthKey(ctx, u)
			if checkErr == nil {
				return &Resolution{URL: u}, nil
			}
			if rawCredential == "" {
				return nil, &StageError{Stage: StageURL, Err: checkErr}
			}
			r.logger.InfoContext(ctx, "existing url rejected, falling back to credential", "error", checkErr)
		case rawCredential == "":
			return nil, &StageError{Stage: StageURL, Err: err}
		}
	}
	if rawCredential == "" {
		return nil, ErrNoURL
	}

	cred := ParseCookie(rawCredential)
	if cred.AccountID == "" {
		return nil, &StageError{Stage: StageToken, Err: fmt.Errorf("%w: missing account id", ErrCredentialInvalid)}
	}
	if cred.SToken == "" {
		if cred.LoginTicket == "" {
			return nil, &StageError{Stage: StageToken, Err: fmt.Errorf("%w: missing stoken and login_ticket", ErrCredentialInvalid)}
		}
		stoken, err := r.exchangeTicket(ctx, cred)
		if err != nil {
			return nil, &StageError{Stage: StageToken, Err: fmt.Errorf("%w: %v", ErrCredentialInvalid, err)}
		}
		cred.SToken = stoken
	}
	cookie := cred.SessionCookie()
	res := &Resolution{Cookie: cookie}

	role, err := r.fetchRole(ctx, cookie)
	if err != nil {
		return res, &StageError{Stage: StageRole, Err: err}
	}
	res.Role = role

	authKey, err := r.generateAuthKey(ctx, cookie, role)
	if err != nil {
		return res, &StageError{Stage: StageAuthKey, Err: err}
	}

	final, err := r.assembleURL(ctx, normalized, role, authKey)
	if err != nil {
		return res, &StageError{Stage: StageVerify, Err: err}
	}
	if err := r.api.CheckAuthKey(ctx, final); err != nil {
		return res, &StageError{Stage: StageVerify, Err: err}
	}
	res.URL = final
	return res, nil
}

func (r *Resolver) exchangeTicket(ctx context.Context, cred Credential) (string, error) {
	q := url.Values{}
	q.Set("login_ticket", cred.LoginTicket)
	q.Set("token_types", "3")
	q.Set("uid", cred.AccountID)

	env, err := r.api.signedGet(ctx, r.cfg.TokenURL+"?"+q.Encode(), "")
	if err != nil {
		return "", err
	}
	if env.Retcode != 0 || !env.hasData() {
		return "", &APIError{Retcode: env.Retcode, Message: env.Message}
	}

	var data struct {
		List []struct {
			Name  string `json:"name"`
			Token string `json:"token"`
		} `json:"list"`
	}
	if err := env.decodeData(&data); err != nil {
		return "", err
	}
	for _, t := range data.List {
		if t.Name == "stoken" && t.Token != "" {
			return t.Token, nil
		}
	}
	return "", fmt.Errorf("%w: no stoken in response", ErrResponseInvalid)
}

func (r *Resolver) fetchRole(ctx context.Context, cookie string) (*Role, error) {
	env, err := r.api.signedGet(ctx, r.cfg.RoleURL+"?game_biz=hk4e_cn", cookie)
	if err != nil {
		return nil, err
	}
	if env.Retcode != 0 || !env.hasData() {
		return nil, &APIError{Retcode: env.Retcode, Message: env.Message}
	}

	var data struct {
		List []Role `json:"list"`
	}
	if err := env.decodeData(&data); err != nil {
		return nil, err
	}
	if len(data.List) == 0 {
		return nil, fmt.Errorf("%w: no game role bound", ErrResponseInvalid)
	}
	role := data.List[0]
	return &role, nil
}

func (r *Resolver) generateAuthKey(ctx context.Context, cookie string, role *Role) (string, error) {
	uid, err := strconv.ParseInt(role.GameUID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: game_uid %q", ErrResponseInvalid, role.GameUID)
	}
	body := map[string]any{
		"auth_appid": "webview_gacha",
		"game_biz":   role.GameBiz,
		"game_uid":   uid,
		"region":     role.Region,
	}
	env, err := r.api.signedPost(ctx, r.cfg.AuthKeyURL, cookie, body)
	if err != nil {
		return "", err
	}
	if env.Retcode != 0 || !env.hasData() {
		return "", &APIError{Retcode: env.Retcode, Message: env.Message}
	}

	var data struct {
		AuthKey string `json:"authkey"`
	}
	if err := env.decodeData(&data); err != nil {
		return "", err
	}
	if data.AuthKey == "" {
		return "", fmt.Errorf("%w: empty authkey", ErrResponseInvalid)
	}
	return data.AuthKey, nil
}

// currentPoolID 当前卡池 ID，查询失败时使用兜底值
func (r *Resolver) currentPoolID(ctx context.Context) string {
	env, err := r.api.get(ctx, r.cfg.PoolURL)
	if err == nil && env.hasData() {
		var data struct {
			List []struct {
				GachaID string `json:"gacha_id"`
			} `json:"list"`
		}
		if err = env.decodeData(&data); err == nil && len(data.List) > 0 && data.List[0].GachaID != "" {
			return data.List[0].GachaID
		}
	}
	if err == nil {
		err = errors.New("empty pool list")
	}
	r.logger.WarnContext(ctx, "pool lookup failed, using fallback", "error", err)
	return r.cfg.FallbackPoolID
}

// assembleURL 没有旧参数时生成完整参数，否则只替换易变字段
func (r *Resolver) assembleURL(ctx context.Context, existing string, role *Role, authKey string) (string, error) {
	volatile := map[string]string{
		"gacha_id":  r.currentPoolID(ctx),
		"timestamp": strconv.FormatInt(r.now().Unix(), 10),
		"region":    role.Region,
		"authkey":   authKey,
		"game_biz":  role.GameBiz,
	}

	if existing != "" && strings.Contains(existing, "?") {
		return patchQuery(existing, volatile)
	}

	base := r.cfg.GachaLogURL
	if strings.HasPrefix(role.Region, "os_") {
		base = r.cfg.GachaLogOverseaURL
	}
	full := map[string]string{
		"authkey_ver": "1",
		"sign_type":   "2",
		"auth_appid":  "webview_gacha",
		"init_type":   "301",
		"lang":        r.cfg.Lang,
		"device_type": "mobile",
		"plat_type":   "ios",
		"gacha_type":  "301",
		"page":        "1",
		"size":        "5",
		"end_id":      "0",
	}
	for k, v := range volatile {
		full[k] = v
	}
	return patchQuery(base, full)
}
