package domain

import (
	"strings"
	"sync"
)

// QuoteBoard 持仓标的的实时报价面板
type QuoteBoard struct {
	mu     sync.RWMutex
	order  []string
	states map[string]*PriceState
}

// NewQuoteBoard 以标的代码（含市场后缀）建立报价面板
func NewQuoteBoard(instrumentIDs []string) *QuoteBoard {
	b := &QuoteBoard{states: make(map[string]*PriceState, len(instrumentIDs))}
	for _, id := range instrumentIDs {
		b.track(id)
	}
	return b
}

func (b *QuoteBoard) track(id string) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return
	}
	if _, ok := b.states[id]; ok {
		return
	}
	b.order = append(b.order, id)
	b.states[id] = &PriceState{}
}

// Track 追加关注的标的
func (b *QuoteBoard) Track(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		b.track(id)
	}
}

// Update 更新某标的报价，未关注的标的被忽略
func (b *QuoteBoard) Update(instrumentID, price string) bool {
	instrumentID = strings.ToUpper(strings.TrimSpace(instrumentID))
	price = strings.TrimSpace(price)
	if instrumentID == "" || price == "" {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.states[instrumentID]
	if st == nil {
		return false
	}
	return st.Update(price)
}

// Get 读取某标的的报价副本
func (b *QuoteBoard) Get(instrumentID string) (PriceState, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st, ok := b.states[strings.ToUpper(instrumentID)]
	if !ok {
		return PriceState{}, false
	}
	return *st, true
}

// Snapshot 返回所有报价的只读副本
func (b *QuoteBoard) Snapshot() map[string]PriceState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := make(map[string]PriceState, len(b.states))
	for id, st := range b.states {
		snap[id] = *st
	}
	return snap
}

// Instruments 按加入顺序返回标的列表
func (b *QuoteBoard) Instruments() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}
