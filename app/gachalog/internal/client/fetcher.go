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

	"golang.org/x/time/rate"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
	"github.com/lk2023060901/gachalogs/pkg/config"
	"github.com/lk2023060901/gachalogs/pkg/logger"
)

const msgVisitTooFrequently = "visit too frequently"

// Observer 抓取过程观察者
type Observer interface {
	PageFetched(category model.Category)
	Retry(category model.Category, reason string)
}

type nopObserver struct{}

func (nopObserver) PageFetched(model.Category)   {}
func (nopObserver) Retry(model.Category, string) {}

// FetcherOption 抓取器选项
type FetcherOption func(*Fetcher)

// WithObserver 设置观察者
func WithObserver(o Observer) FetcherOption {
	return func(f *Fetcher) {
		if o != nil {
			f.observer = o
		}
	}
}

// WithSleep 替换退避等待，测试用
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) FetcherOption {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// WithLimiter 替换翻页限速器
func WithLimiter(l *rate.Limiter) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// Fetcher 按页抓取单个卡池的抽卡记录
type Fetcher struct {
	cfg      *Config
	api      *apiClient
	limiter  *rate.Limiter
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error
	logger   logger.Logger
}

// NewFetcher 创建抓取器，所有卡池共享同一个翻页限速器
func NewFetcher(cfg *Config, httpClient *http.Client, l logger.Logger, opts ...FetcherOption) (*Fetcher, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	l = logger.OrDefault(l).Named("client.fetcher")

	f := &Fetcher{
		cfg:      merged,
		api:      newAPIClient(merged, httpClient, l),
		observer: nopObserver{},
		sleep:    sleepContext,
		logger:   l,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.limiter == nil {
		f.limiter = newPageLimiter(merged.PageInterval)
	}
	return f, nil
}

func newPageLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// SetPageInterval 热更新翻页间隔
func (f *Fetcher) SetPageInterval(interval time.Duration) {
	if interval <= 0 {
		f.limiter.SetLimit(rate.Inf)
		return
	}
	f.limiter.SetLimit(rate.Every(interval))
}

// FetchCategory 从最新一页开始翻到空页为止，结果从新到旧
func (f *Fetcher) FetchCategory(ctx context.Context, signedURL string, category model.Category) (model.CategoryLog, error) {
	var out model.CategoryLog

	base, err := url.Parse(signedURL)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	query := base.Query()
	query.Set("gacha_type", string(category))
	query.Set("size", strconv.Itoa(f.cfg.PageSize))
	query.Set("lang", f.cfg.Lang)

	endID := "0"
	retrier := newPageRetrier(f.cfg.Backoff)
	for page := 1; f.cfg.MaxPages <= 0 || page <= f.cfg.MaxPages; page++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return out, err
		}

		query.Set("page", strconv.Itoa(page))
		query.Set("end_id", endID)
		u := *base
		u.RawQuery = query.Encode()

		records, err := f.fetchPage(ctx, u.String(), category, page, retrier)
		if err != nil {
			return out, err
		}
		retrier.reset()
		f.observer.PageFetched(category)

		if len(records) == 0 {
			return out, nil
		}
		for _, r := range records {
			c, err := r.Category()
			if err != nil || c != category.Canonical() {
				return out, fmt.Errorf("%w: record %s (%s) of gacha_type %q in category %s",
					ErrDataIntegrity, r.ID, r.Name, r.GachaType, category)
			}
		}
		last := records[len(records)-1].ID
		if last == "" {
			return out, fmt.Errorf("%w: page %d of %s has no cursor id", ErrDataIntegrity, page, category)
		}

		if out, err = out.Append(records...); err != nil {
			return out, fmt.Errorf("%w: %v", ErrDataIntegrity, err)
		}
		endID = last
	}

	f.logger.WarnContext(ctx, "max pages reached", "category", category, "max_pages", f.cfg.MaxPages)
	return out, nil
}

// fetchPage 请求一页，限流与临时错误按退避重试同一页
func (f *Fetcher) fetchPage(ctx context.Context, pageURL string, category model.Category, page int, retrier *pageRetrier) ([]model.PullRecord, error) {
	for {
		records, reason, err := f.requestPage(ctx, pageURL)
		if reason == "" {
			return records, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		wait, ok := retrier.next(reason)
		if !ok {
			return nil, fmt.Errorf("%w: category %s page %d: %v", ErrFetchTimeout, category, page, err)
		}
		f.observer.Retry(category, string(reason))
		f.logger.WarnContext(ctx, "page request retrying",
			"category", category, "page", page, "reason", reason, "wait", wait, "error", err)
		if err := f.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// requestPage 单次请求；返回非空 reason 表示可重试
func (f *Fetcher) requestPage(ctx context.Context, pageURL string) ([]model.PullRecord, retryReason, error) {
	env, err := f.api.get(ctx, pageURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		return nil, reasonTransient, err
	}
	if env.Message == msgVisitTooFrequently {
		return nil, reasonRateLimited, errors.New(env.Message)
	}
	if env.Retcode != 0 {
		return nil, "", classify(&envelope{Retcode: env.Retcode, Message: env.Message})
	}
	if !env.hasData() {
		if env.Message != "" && !strings.EqualFold(env.Message, "OK") {
			return nil, "", classify(env)
		}
		return nil, "", nil
	}

	var data struct {
		List []model.PullRecord `json:"list"`
	}
	if err := env.decodeData(&data); err != nil {
		return nil, reasonTransient, err
	}
	return data.List, "", nil
}
