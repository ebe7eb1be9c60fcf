package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
	"github.com/lk2023060901/gachalogs/pkg/logger"
)

// writeEnvelope 写出米哈游风格的响应
func writeEnvelope(w http.ResponseWriter, retcode int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"retcode": retcode,
		"message": message,
		"data":    data,
	})
}

// makeHistory 生成 n 条从新到旧的记录，id 按 prefix 区分卡池
func makeHistory(uid, gachaType string, n int, prefix int) []model.PullRecord {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, model.Location)
	out := make([]model.PullRecord, n)
	for i := 0; i < n; i++ {
		k := n - i
		out[i] = model.PullRecord{
			UID:       uid,
			GachaType: gachaType,
			Count:     "1",
			Time:      base.Add(time.Duration(k) * time.Minute).Format(model.TimeLayout),
			Name:      fmt.Sprintf("item-%s-%d", gachaType, k),
			Lang:      "zh-cn",
			ItemType:  "武器",
			RankType:  "3",
			ID:        fmt.Sprintf("%d%08d", prefix, k),
		}
	}
	return out
}

// fakeGacha 按 end_id 游标分页的抽卡记录接口
type fakeGacha struct {
	mu       sync.Mutex
	history  map[string][]model.PullRecord
	throttle map[string]int
	broken   map[string]int
	expired  bool
	nullData string
	requests []url.Values
}

func newFakeGacha() *fakeGacha {
	return &fakeGacha{
		history:  make(map[string][]model.PullRecord),
		throttle: make(map[string]int),
		broken:   make(map[string]int),
	}
}

func (f *fakeGacha) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, q)

	if f.expired || q.Get("authkey") == "" || q.Get("authkey") == "stale" {
		writeEnvelope(w, -101, "authkey timeout", nil)
		return
	}
	if f.nullData != "" {
		writeEnvelope(w, 0, f.nullData, nil)
		return
	}
	key := q.Get("gacha_type") + ":" + q.Get("page")
	if f.throttle[key] > 0 {
		f.throttle[key]--
		writeEnvelope(w, -110, msgVisitTooFrequently, nil)
		return
	}
	if f.broken[key] > 0 {
		f.broken[key]--
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	size, _ := strconv.Atoi(q.Get("size"))
	if size <= 0 {
		size = 5
	}
	all := f.history[q.Get("gacha_type")]
	start := 0
	if end := q.Get("end_id"); end != "" && end != "0" {
		start = len(all)
		for i, rec := range all {
			if rec.ID == end {
				start = i + 1
				break
			}
		}
	}
	stop := min(start+size, len(all))
	list := []model.PullRecord{}
	if start < stop {
		list = all[start:stop]
	}
	writeEnvelope(w, 0, "OK", map[string]any{
		"page":   q.Get("page"),
		"size":   strconv.Itoa(size),
		"list":   list,
		"region": "cn_gf01",
	})
}

// requestsFor 某卡池收到的请求
func (f *fakeGacha) requestsFor(gachaType string) []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []url.Values
	for _, q := range f.requests {
		if q.Get("gacha_type") == gachaType {
			out = append(out, q)
		}
	}
	return out
}

// sleepRecorder 记录退避时长，不真正等待
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

// countingObserver 统计翻页与重试
type countingObserver struct {
	mu      sync.Mutex
	pages   map[model.Category]int
	retries map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{pages: make(map[model.Category]int), retries: make(map[string]int)}
}

func (o *countingObserver) PageFetched(c model.Category) {
	o.mu.Lock()
	o.pages[c]++
	o.mu.Unlock()
}

func (o *countingObserver) Retry(_ model.Category, reason string) {
	o.mu.Lock()
	o.retries[reason]++
	o.mu.Unlock()
}

// newTestFetcher 指向 fake 的抓取器，翻页不限速
func newTestFetcher(t *testing.T, cfg *Config, opts ...FetcherOption) (*Fetcher, *sleepRecorder) {
	t.Helper()
	rec := &sleepRecorder{}
	opts = append([]FetcherOption{
		WithSleep(rec.sleep),
		WithLimiter(rate.NewLimiter(rate.Inf, 1)),
	}, opts...)
	f, err := NewFetcher(cfg, nil, logger.NewNoop(), opts...)
	require.NoError(t, err)
	return f, rec
}

// signedURL fake 上的抽卡记录链接
func signedURL(srv *httptest.Server) string {
	return srv.URL + "/event/gacha_info/api/getGachaLog?authkey_ver=1&authkey=test-key&lang=zh-cn"
}
