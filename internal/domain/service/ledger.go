package service

import (
	"errors"
	"fmt"

	"folio/internal/domain/model"
)

// ErrInvalidSide 交易方向既不是 Buy 也不是 Sell
var ErrInvalidSide = errors.New("invalid transaction side")

// Ledger 按到达顺序折叠交易记录得到的各标的累计状态
// 不做持股非负检查，超卖会得到负数持股
type Ledger struct {
	index map[string]int
	aggs  []model.PositionAggregate
}

// NewLedger 创建空账本
func NewLedger() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// Reduce 对交易序列做一次顺序折叠
func Reduce(txs []model.Transaction) (*Ledger, error) {
	l := NewLedger()
	for i, tx := range txs {
		if err := l.Apply(tx); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	return l, nil
}

// Apply 把一笔交易折叠进账本
// 卖出时使用的平均成本取自本笔交易之前的状态
func (l *Ledger) Apply(tx model.Transaction) error {
	if !tx.Side.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSide, tx.Side)
	}

	i, ok := l.index[tx.InstrumentID]
	if !ok {
		i = len(l.aggs)
		l.index[tx.InstrumentID] = i
		l.aggs = append(l.aggs, model.PositionAggregate{
			InstrumentID: tx.InstrumentID,
			DisplayName:  tx.DisplayName,
		})
	}
	agg := &l.aggs[i]

	switch tx.Side {
	case model.SideBuy:
		agg.Quantity += tx.Quantity
		agg.TotalCost += tx.Quantity*tx.UnitPrice + tx.Fee + tx.Tax
		agg.BuyQuantity += tx.Quantity
	case model.SideSell:
		avg := agg.AvgBuyPrice()
		agg.Quantity -= tx.Quantity
		agg.RealizedProfit += (tx.UnitPrice-avg)*tx.Quantity - tx.Fee - tx.Tax
	}
	return nil
}

// Get 返回某标的的累计状态
func (l *Ledger) Get(instrumentID string) (model.PositionAggregate, bool) {
	i, ok := l.index[instrumentID]
	if !ok {
		return model.PositionAggregate{}, false
	}
	return l.aggs[i], true
}

// Aggregates 按首次出现顺序返回所有标的的副本
func (l *Ledger) Aggregates() []model.PositionAggregate {
	out := make([]model.PositionAggregate, len(l.aggs))
	copy(out, l.aggs)
	return out
}

// Len 标的数量
func (l *Ledger) Len() int { return len(l.aggs) }
