package client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// retryReason 重试原因，用于退避策略选择与指标
type retryReason string

const (
	reasonRateLimited retryReason = "rate_limited"
	reasonTransient   retryReason = "transient"
)

// pageRetrier 单页重试状态，两类原因各自退避
type pageRetrier struct {
	rateLimit  *backoff.ExponentialBackOff
	transient  *backoff.ExponentialBackOff
	maxRetries int
	attempts   int
}

func newPageRetrier(cfg BackoffConfig) *pageRetrier {
	return &pageRetrier{
		rateLimit:  newExponential(cfg.RateLimitInitial, cfg.Multiplier, cfg.Max),
		transient:  newExponential(cfg.TransientInitial, cfg.Multiplier, cfg.Max),
		maxRetries: cfg.MaxRetries,
	}
}

func newExponential(initial time.Duration, multiplier float64, max time.Duration) *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     initial,
		RandomizationFactor: 0,
		Multiplier:          multiplier,
		MaxInterval:         max,
	}
	b.Reset()
	return b
}

// next 下一次等待时长，重试次数耗尽返回 false
func (p *pageRetrier) next(reason retryReason) (time.Duration, bool) {
	p.attempts++
	if p.maxRetries > 0 && p.attempts > p.maxRetries {
		return 0, false
	}
	if reason == reasonRateLimited {
		return p.rateLimit.NextBackOff(), true
	}
	return p.transient.NextBackOff(), true
}

// reset 翻页成功后重置
func (p *pageRetrier) reset() {
	p.attempts = 0
	p.rateLimit.Reset()
	p.transient.Reset()
}

// sleepContext 可被取消的等待
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
