package service

import (
	"context"
	"time"

	"github.com/lk2023060901/gachalogs/pkg/cache/lru"
)

type accountLock chan struct{}

// AccountLocker 按键串行化。
// user: 键保护单个用户的配置读写，logs: 键保护同一记录文件的抓取、合并与落盘；
// 先取 user: 键再取 logs: 键，同一时刻最多持有一个 logs: 键。
// 锁对象存放在带 TTL 的 LRU 中，空闲超过 ttl 后回收，ttl 须大于单次持锁的最长时间。
type AccountLocker struct {
	locks *lru.LRU[string, accountLock]
	ttl   time.Duration
}

// NewAccountLocker 创建账号锁
func NewAccountLocker(ttl time.Duration) *AccountLocker {
	cleanup := ttl / 2
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &AccountLocker{
		locks: lru.New[string, accountLock](&lru.Config{
			DefaultTTL:      ttl,
			CleanupInterval: cleanup,
		}),
		ttl: ttl,
	}
}

// Lock 获取账号锁，返回释放函数；ctx 结束时放弃等待
func (l *AccountLocker) Lock(ctx context.Context, key string) (func(), error) {
	lock := l.locks.GetOrCreate(key, func() accountLock {
		return make(accountLock, 1)
	})

	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// 持锁期间续期，避免被回收
	l.locks.SetWithTTL(key, lock, l.ttl)

	released := false
	return func() {
		if released {
			return
		}
		released = true
		<-lock
	}, nil
}

// Len 当前缓存的锁数量
func (l *AccountLocker) Len() int {
	return l.locks.Len()
}

// Close 停止回收协程
func (l *AccountLocker) Close() error {
	return l.locks.Close()
}

func userLockKey(userID string) string {
	return "user:" + userID
}

func logsLockKey(path string) string {
	return "logs:" + path
}

// heldLock 同一时刻最多持有一个记录文件锁，切换前先释放旧锁
type heldLock struct {
	locker *AccountLocker
	key    string
	unlock func()
}

// switchTo 换到 key 对应的锁；key 为空或未变化时保持不动
func (h *heldLock) switchTo(ctx context.Context, key string) error {
	if key == "" || key == h.key {
		return nil
	}
	h.release()
	unlock, err := h.locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	h.key, h.unlock = key, unlock
	return nil
}

func (h *heldLock) release() {
	if h.unlock != nil {
		h.unlock()
	}
	h.key, h.unlock = "", nil
}
