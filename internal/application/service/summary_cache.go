package service

import (
	"sync"
	"time"

	"folio/internal/domain/model"
)

// SummaryCache 最近一次估值结果
//
// 进程启动时创建并注入各处理器；账本写入后调用 Invalidate。
// 计算开始前取 Generation，写回时用 PutIf，避免失效之前算出的结果覆盖回来。
type SummaryCache struct {
	ttl time.Duration
	now func() time.Time

	mu         sync.RWMutex
	summary    model.Summary
	storedAt   time.Time
	valid      bool
	generation uint64
}

func NewSummaryCache(ttl time.Duration, now func() time.Time) *SummaryCache {
	if now == nil {
		now = time.Now
	}
	return &SummaryCache{ttl: ttl, now: now}
}

// Get 返回未过期的结果；调用方不得修改其中的切片
func (c *SummaryCache) Get() (model.Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid {
		return model.Summary{}, false
	}
	if c.ttl > 0 && c.now().Sub(c.storedAt) >= c.ttl {
		return model.Summary{}, false
	}
	return c.summary, true
}

// Generation 当前失效代数
func (c *SummaryCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// PutIf 仅当期间没有发生失效时写入
func (c *SummaryCache) PutIf(generation uint64, sum model.Summary) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return false
	}
	c.summary = sum
	c.storedAt = c.now()
	c.valid = true
	return true
}

// Invalidate 丢弃缓存结果
func (c *SummaryCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.summary = model.Summary{}
	c.generation++
	c.mu.Unlock()
}
