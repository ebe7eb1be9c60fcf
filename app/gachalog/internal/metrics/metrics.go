// Package metrics 抽卡记录服务指标
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
	"github.com/lk2023060901/gachalogs/pkg/config"
)

// Config 指标配置
type Config struct {
	// Namespace 指标命名空间
	Namespace string `mapstructure:"namespace" json:"namespace" yaml:"namespace"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Namespace: "gachalogs",
	}
}

// GachaMetrics 抽卡记录服务指标，nil 接收者上的调用均为空操作
type GachaMetrics struct {
	config *Config

	// 抓取指标
	PagesFetched *prometheus.CounterVec // 已抓取页数（按卡池）
	FetchRetries *prometheus.CounterVec // 单页重试次数（按卡池、原因）

	// 刷新指标
	RefreshTotal    *prometheus.CounterVec   // 刷新次数（按结果）
	RefreshDuration *prometheus.HistogramVec // 刷新耗时
	RecordsAdded    *prometheus.CounterVec   // 合并新增记录数（按卡池）

	// 存储指标
	StoreWrites        *prometheus.CounterVec   // 写文件次数（按类型、结果）
	StoreWriteDuration *prometheus.HistogramVec // 写文件耗时
	CacheHitTotal      *prometheus.CounterVec   // 记录缓存命中
	CacheMissTotal     *prometheus.CounterVec   // 记录缓存未命中
}

// New 创建指标
func New(cfg *Config) (*GachaMetrics, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge metrics config: %w", err)
	}
	ns := newCfg.Namespace

	return &GachaMetrics{
		config: newCfg,

		PagesFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "fetch",
				Name:      "pages_total",
				Help:      "已抓取的抽卡记录页数",
			},
			[]string{"category"},
		),
		FetchRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "fetch",
				Name:      "retries_total",
				Help:      "单页请求重试次数",
			},
			[]string{"category", "reason"}, // reason: rate_limited/transient
		),

		RefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "refresh_total",
				Help:      "抽卡记录刷新次数",
			},
			[]string{"result"}, // result: success/cached/failed
		),
		RefreshDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "refresh_duration_seconds",
				Help:      "抽卡记录刷新耗时（秒）",
				Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"result"},
		),
		RecordsAdded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "records_added_total",
				Help:      "合并后新增的记录数",
			},
			[]string{"category"},
		),

		StoreWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "store",
				Name:      "writes_total",
				Help:      "写文件次数",
			},
			[]string{"kind", "result"}, // kind: config/logs
		),
		StoreWriteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "store",
				Name:      "write_duration_seconds",
				Help:      "写文件耗时（秒）",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"kind"},
		),
		CacheHitTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "store",
				Name:      "cache_hits_total",
				Help:      "记录缓存命中总数",
			},
			[]string{"kind"},
		),
		CacheMissTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "store",
				Name:      "cache_misses_total",
				Help:      "记录缓存未命中总数",
			},
			[]string{"kind"},
		),
	}, nil
}

// Register 注册指标到 Prometheus Registry
func (m *GachaMetrics) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.PagesFetched,
		m.FetchRetries,
		m.RefreshTotal,
		m.RefreshDuration,
		m.RecordsAdded,
		m.StoreWrites,
		m.StoreWriteDuration,
		m.CacheHitTotal,
		m.CacheMissTotal,
	}

	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// PageFetched 记录一页抓取完成
func (m *GachaMetrics) PageFetched(category model.Category) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(string(category)).Inc()
}

// Retry 记录一次单页重试
func (m *GachaMetrics) Retry(category model.Category, reason string) {
	if m == nil {
		return
	}
	m.FetchRetries.WithLabelValues(string(category), reason).Inc()
}

// RecordRefresh 记录刷新结果
func (m *GachaMetrics) RecordRefresh(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(result).Inc()
	m.RefreshDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordAdded 记录合并新增
func (m *GachaMetrics) RecordAdded(added map[model.Category]int) {
	if m == nil {
		return
	}
	for c, n := range added {
		if n > 0 {
			m.RecordsAdded.WithLabelValues(string(c)).Add(float64(n))
		}
	}
}

// RecordStoreWrite 记录写文件
func (m *GachaMetrics) RecordStoreWrite(kind string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failed"
	}
	m.StoreWrites.WithLabelValues(kind, result).Inc()
	m.StoreWriteDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordCacheHit 记录缓存命中
func (m *GachaMetrics) RecordCacheHit(kind string) {
	if m == nil {
		return
	}
	m.CacheHitTotal.WithLabelValues(kind).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (m *GachaMetrics) RecordCacheMiss(kind string) {
	if m == nil {
		return
	}
	m.CacheMissTotal.WithLabelValues(kind).Inc()
}
