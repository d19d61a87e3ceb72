package service

import (
	"folio/internal/domain/model"
)

// UnknownName 既没有账本名称也查不到名称时的显示名
const UnknownName = "未知名稱"

// PriceLookup 现价查询。实现方必须吞掉网络错误，查不到时返回价格 0
type PriceLookup interface {
	Lookup(code string, otc bool) model.Quote
}

// PriceLookupFunc 函数适配器
type PriceLookupFunc func(code string, otc bool) model.Quote

func (f PriceLookupFunc) Lookup(code string, otc bool) model.Quote { return f(code, otc) }

// Assemble 结合现价计算持仓明细与合计
// 数量 <= 0 的标的不进入明细，只记入 Closed
func Assemble(aggs []model.PositionAggregate, lookup PriceLookup) model.Summary {
	sum := model.Summary{
		Lines:  make([]model.PortfolioLine, 0, len(aggs)),
		Closed: make([]model.ClosedPosition, 0),
	}

	var totalCost, totalValue, totalUnrealized, totalRealized, closedRealized float64
	for _, agg := range aggs {
		if agg.Quantity <= 0 {
			sum.Closed = append(sum.Closed, model.ClosedPosition{
				InstrumentID:   agg.InstrumentID,
				DisplayName:    agg.DisplayName,
				Quantity:       agg.Quantity,
				RealizedProfit: RoundUnit(agg.RealizedProfit),
			})
			closedRealized += agg.RealizedProfit
			continue
		}

		inst := model.ParseInstrument(agg.InstrumentID)
		var quote model.Quote
		if lookup != nil {
			quote = lookup.Lookup(inst.Code, inst.Market.IsOTC())
		}
		price := quote.Price
		if price < 0 || !finite(price) {
			price = 0
		}

		avg := agg.AvgBuyPrice()
		marketValue := agg.Quantity * price
		unrealized := (price - avg) * agg.Quantity

		totalCost += agg.TotalCost
		totalValue += marketValue
		totalUnrealized += unrealized
		totalRealized += agg.RealizedProfit

		sum.Lines = append(sum.Lines, model.PortfolioLine{
			InstrumentID:     agg.InstrumentID,
			DisplayName:      displayName(agg.DisplayName, quote.Name),
			Quantity:         agg.Quantity,
			AvgBuyPrice:      Round2(avg),
			CurrentPrice:     Round2(price),
			TotalCost:        RoundUnit(agg.TotalCost),
			MarketValue:      RoundUnit(marketValue),
			UnrealizedProfit: RoundUnit(unrealized),
			RealizedProfit:   RoundUnit(agg.RealizedProfit),
		})
	}

	sum.TotalCost = RoundUnit(totalCost)
	sum.TotalMarketValue = RoundUnit(totalValue)
	sum.TotalUnrealizedProfit = RoundUnit(totalUnrealized)
	sum.TotalRealizedProfit = RoundUnit(totalRealized)
	sum.ClosedRealizedProfit = RoundUnit(closedRealized)
	return sum
}

func displayName(ledgerName, quoteName string) string {
	switch {
	case ledgerName != "":
		return ledgerName
	case quoteName != "":
		return quoteName
	default:
		return UnknownName
	}
}
