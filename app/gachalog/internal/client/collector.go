package client

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
	"github.com/lk2023060901/gachalogs/pkg/logger"
)

// Collection 一次完整抓取的结果
type Collection struct {
	AccountID string
	Logs      model.Logs
}

// Collector 依次抓取所有卡池
type Collector struct {
	fetcher     *Fetcher
	concurrency int
	logger      logger.Logger
}

// NewCollector 创建采集器，并发数取抓取器配置
func NewCollector(f *Fetcher, l logger.Logger) *Collector {
	n := f.cfg.Concurrency
	if n <= 0 {
		n = 1
	}
	return &Collector{
		fetcher:     f,
		concurrency: n,
		logger:      logger.OrDefault(l).Named("client.collector"),
	}
}

// CollectAll 按卡池声明顺序抓取并组装，任一卡池失败即整体失败
func (c *Collector) CollectAll(ctx context.Context, signedURL string) (*Collection, error) {
	categories := model.Categories()
	results := make([]model.CategoryLog, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, category := range categories {
		g.Go(func() error {
			cl, err := c.fetcher.FetchCategory(gctx, signedURL, category)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", category.Name(), err)
			}
			results[i] = cl
			c.logger.DebugContext(gctx, "category fetched", "category", category, "records", cl.Len())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logs := make(model.Logs, len(categories))
	for i, category := range categories {
		logs[category] = results[i]
	}
	if logs.Total() == 0 {
		return nil, ErrNoRecords
	}
	if err := logs.Validate(); err != nil {
		return nil, err
	}

	col := &Collection{AccountID: logs.AccountID(), Logs: logs}
	c.logger.InfoContext(ctx, "gacha logs collected", "uid", col.AccountID, "total", logs.Total())
	return col, nil
}
