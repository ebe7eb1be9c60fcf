package client

import "time"

// Config 米哈游接口与抓取节奏配置
type Config struct {
	GachaLogURL        string `mapstructure:"gacha_log_url"`
	GachaLogOverseaURL string `mapstructure:"gacha_log_oversea_url"`
	TokenURL           string `mapstructure:"token_url"`
	RoleURL            string `mapstructure:"role_url"`
	PoolURL            string `mapstructure:"pool_url"`
	AuthKeyURL         string `mapstructure:"authkey_url"`
	FallbackPoolID     string `mapstructure:"fallback_pool_id"`

	Salt          string `mapstructure:"salt"`
	ClientVersion string `mapstructure:"client_version"`
	ClientType    string `mapstructure:"client_type"`
	UserAgent     string `mapstructure:"user_agent"`
	Referer       string `mapstructure:"referer"`

	Timeout time.Duration `mapstructure:"timeout"`

	Lang         string        `mapstructure:"lang"`
	PageSize     int           `mapstructure:"page_size"`
	PageInterval time.Duration `mapstructure:"page_interval"`
	// MaxPages 单个卡池最多抓取页数，0 表示不限
	MaxPages int `mapstructure:"max_pages"`
	// Concurrency 同时抓取的卡池数，所有卡池共享同一个翻页限速器
	Concurrency int `mapstructure:"concurrency"`

	Backoff BackoffConfig `mapstructure:"backoff"`
}

// BackoffConfig 单页重试退避
type BackoffConfig struct {
	RateLimitInitial time.Duration `mapstructure:"rate_limit_initial"`
	TransientInitial time.Duration `mapstructure:"transient_initial"`
	Multiplier       float64       `mapstructure:"multiplier"`
	Max              time.Duration `mapstructure:"max"`
	// MaxRetries 单页最多重试次数，耗尽返回 ErrFetchTimeout
	MaxRetries int `mapstructure:"max_retries"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		GachaLogURL:        "https://hk4e-api.mihoyo.com/event/gacha_info/api/getGachaLog",
		GachaLogOverseaURL: "https://hk4e-api-os.mihoyo.com/event/gacha_info/api/getGachaLog",
		TokenURL:           "https://api-takumi.mihoyo.com/auth/api/getMultiTokenByLoginTicket",
		RoleURL:            "https://api-takumi.mihoyo.com/binding/api/getUserGameRolesByStoken",
		PoolURL:            "https://webstatic.mihoyo.com/hk4e/gacha_info/cn_gf01/gacha/list.json",
		AuthKeyURL:         "https://api-takumi.mihoyo.com/binding/api/genAuthKey",
		FallbackPoolID:     "fecafa7b6560db5f3182222395d88aaa6aaac1bc",

		Salt:          "dWCcD2FsOUXEstC5f9xubswZxEeoBOTc",
		ClientVersion: "2.28.1",
		ClientType:    "2",
		UserAgent:     "okhttp/4.8.0",
		Referer:       "https://app.mihoyo.com",

		Timeout: 15 * time.Second,

		Lang:         "zh-cn",
		PageSize:     20,
		PageInterval: time.Second,
		Concurrency:  1,

		Backoff: BackoffConfig{
			RateLimitInitial: 5 * time.Second,
			TransientInitial: time.Second,
			Multiplier:       2,
			Max:              30 * time.Second,
			MaxRetries:       8,
		},
	}
}
