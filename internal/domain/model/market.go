package model

import (
	"fmt"
	"strings"
)

// Market 上市 / 上柜
type Market string

const (
	MarketTWSE Market = "TWSE"
	MarketTWO  Market = "TWO"
)

const (
	suffixTWSE = ".TW"
	suffixTWO  = ".TWO"
)

// ParseMarket 解析市场代码，空字符串视为上市
func ParseMarket(s string) (Market, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(MarketTWSE):
		return MarketTWSE, nil
	case string(MarketTWO):
		return MarketTWO, nil
	default:
		return "", fmt.Errorf("unknown market %q", s)
	}
}

// MarketFor 根据是否上柜返回市场
func MarketFor(otc bool) Market {
	if otc {
		return MarketTWO
	}
	return MarketTWSE
}

// IsOTC 是否为上柜市场
func (m Market) IsOTC() bool { return m == MarketTWO }

// Suffix 代码后缀
func (m Market) Suffix() string {
	if m.IsOTC() {
		return suffixTWO
	}
	return suffixTWSE
}

// Instrument 交易标的：代码 + 市场
type Instrument struct {
	Code   string
	Market Market
}

// ParseInstrument 从带后缀的代码（如 2330.TW、6488.TWO）解析标的
func ParseInstrument(id string) Instrument {
	id = strings.TrimSpace(id)
	code := id
	if i := strings.Index(id, "."); i >= 0 {
		code = id[:i]
	}
	return Instrument{
		Code:   code,
		Market: MarketFor(strings.HasSuffix(id, suffixTWO)),
	}
}

// ID 带市场后缀的标的代码
func (i Instrument) ID() string {
	return i.Code + i.Market.Suffix()
}
