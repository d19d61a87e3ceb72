package model

import "time"

// PositionAggregate 单一标的的累计状态，每次归约都从零重建
type PositionAggregate struct {
	InstrumentID   string
	DisplayName    string
	Quantity       float64
	TotalCost      float64 // 只累计买入成本，卖出不扣减
	BuyQuantity    float64 // 累计买入股数，只增不减
	RealizedProfit float64
}

// AvgBuyPrice 生命周期平均买入价，BuyQuantity 为 0 时返回 0
func (p PositionAggregate) AvgBuyPrice() float64 {
	if p.BuyQuantity > 0 {
		return p.TotalCost / p.BuyQuantity
	}
	return 0
}

// PortfolioLine 持仓明细（仅数量 > 0 的标的）
type PortfolioLine struct {
	InstrumentID     string  `json:"stock_code"`
	DisplayName      string  `json:"stock_name"`
	Quantity         float64 `json:"quantity"`
	AvgBuyPrice      float64 `json:"avg_buy_price"`
	CurrentPrice     float64 `json:"current_price"`
	TotalCost        int64   `json:"total_cost"`
	MarketValue      int64   `json:"market_value"`
	UnrealizedProfit int64   `json:"unrealized_profit"`
	RealizedProfit   int64   `json:"realized_profit"`
}

// ClosedPosition 已平仓（或超卖）标的的已实现损益
type ClosedPosition struct {
	InstrumentID   string  `json:"stock_code"`
	DisplayName    string  `json:"stock_name"`
	Quantity       float64 `json:"quantity"`
	RealizedProfit int64   `json:"realized_profit"`
}

// Summary 投资组合估值结果
type Summary struct {
	Lines                 []PortfolioLine  `json:"lines"`
	Closed                []ClosedPosition `json:"closed"`
	TotalCost             int64            `json:"total_cost"`
	TotalMarketValue      int64            `json:"total_market_value"`
	TotalUnrealizedProfit int64            `json:"total_unrealized_profit"`
	TotalRealizedProfit   int64            `json:"total_realized_profit"`
	ClosedRealizedProfit  int64            `json:"closed_realized_profit"`
	GeneratedAt           time.Time        `json:"generated_at"`
}
