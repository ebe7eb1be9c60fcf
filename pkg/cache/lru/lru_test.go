package lru

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// TestLRUBasic 测试读写删除
func TestLRUBasic(t *testing.T) {
	c := New[string, int](&Config{MaxSize: 10})
	defer c.Close()

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.Set("b", 2)
	c.Set("c", 3)
	assert.Equal(t, 2, c.Len())
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

// TestLRUEviction 测试容量淘汰最久未使用的条目
func TestLRUEviction(t *testing.T) {
	var evicted []string
	c := New[string, int](&Config{MaxSize: 2}, WithOnEvict(func(k string, _ int) {
		evicted = append(evicted, k)
	}))
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, c.Len())
}

// TestLRUTTL 测试过期
func TestLRUTTL(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	c := New[string, int](&Config{MaxSize: 10, DefaultTTL: time.Minute}, WithClock[string, int](clock.now))
	defer c.Close()

	c.Set("a", 1)
	c.SetWithTTL("b", 2, 0)

	clock.advance(2 * time.Minute)
	_, ok := c.Get("a")
	assert.False(t, ok)

	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

// TestLRUGetOrCreate 测试原子创建
func TestLRUGetOrCreate(t *testing.T) {
	c := New[string, int](nil)
	defer c.Close()

	calls := 0
	create := func() int { calls++; return 42 }

	assert.Equal(t, 42, c.GetOrCreate("k", create))
	assert.Equal(t, 42, c.GetOrCreate("k", create))
	assert.Equal(t, 1, calls)
}

// TestLRUClose 测试重复关闭
func TestLRUClose(t *testing.T) {
	c := New[string, int](&Config{CleanupInterval: 10 * time.Millisecond})
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
