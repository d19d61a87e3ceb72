package model

// Side 交易方向
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// Valid 是否为已知的交易方向
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Transaction 一笔成交记录（只追加，不修改）
// Date 仅作展示用途，账本顺序以到达顺序为准
type Transaction struct {
	Date         string  `json:"date"`
	InstrumentID string  `json:"stock_code"`
	DisplayName  string  `json:"stock_name"`
	Side         Side    `json:"type"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"price"`
	Fee          float64 `json:"fee"`
	Tax          float64 `json:"tax"`
}
