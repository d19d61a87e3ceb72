package cache

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"folio/internal/infrastructure/metrics"
)

// Clock 可注入的时钟
type Clock func() time.Time

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTL 带过期时间的内存缓存，读多写少，并发安全
// 过期条目在读取时视为不存在，并由 Sweep 统一清理
type TTL[K comparable, V any] struct {
	name string
	ttl  time.Duration
	now  Clock

	mu      sync.RWMutex
	entries map[K]entry[V]
}

// Option TTL 配置项
type Option func(*options)

type options struct {
	name string
	now  Clock
}

// WithClock 替换时钟（测试用）
func WithClock(now Clock) Option {
	return func(o *options) { o.now = now }
}

// WithName 指标中使用的缓存名称
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// NewTTL 创建缓存，ttl <= 0 时条目永不过期
func NewTTL[K comparable, V any](ttl time.Duration, opts ...Option) *TTL[K, V] {
	o := options{name: "ttl", now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &TTL[K, V]{
		name:    o.name,
		ttl:     ttl,
		now:     o.now,
		entries: make(map[K]entry[V]),
	}
}

// Get 读取未过期的值
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.expired(e) {
		ok = false
	}
	metrics.Hit(c.name, ok)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set 写入值并刷新时间戳
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
	c.mu.Unlock()
}

// Delete 删除单个键
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge 清空缓存
func (c *TTL[K, V]) Purge() {
	c.mu.Lock()
	c.entries = make(map[K]entry[V])
	c.mu.Unlock()
}

// Sweep 清理过期条目，返回清理数量
func (c *TTL[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len 当前条目数（含尚未清理的过期条目）
func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Name 作为定时任务时的名称
func (c *TTL[K, V]) Name() string { return "cache-sweep:" + c.name }

// Run 定时清理过期条目
func (c *TTL[K, V]) Run() error {
	if n := c.Sweep(); n > 0 {
		log.Debug().Str("cache", c.name).Int("evicted", n).Msg("cache swept")
	}
	return nil
}

func (c *TTL[K, V]) expired(e entry[V]) bool {
	return c.ttl > 0 && c.now().Sub(e.storedAt) >= c.ttl
}
