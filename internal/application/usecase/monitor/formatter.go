package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"folio/internal/domain"
	"folio/internal/domain/model"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

const currency = "TWD"

func colorize(s, c string) string { return c + s + ansiReset }

type RenderMode int

const (
	RenderLive RenderMode = iota
	RenderSnapshot
)

// Formatter 台股惯例：上涨红色，下跌绿色
type Formatter struct {
	Color bool
}

func NewFormatter(color bool) *Formatter {
	return &Formatter{Color: color}
}

func (f *Formatter) paint(s, c string) string {
	if !f.Color {
		return s
	}
	return colorize(s, c)
}

func (f *Formatter) dirColor(d domain.Direction) string {
	switch d {
	case domain.DirectionUp:
		return ansiRed
	case domain.DirectionDown:
		return ansiGreen
	default:
		return ansiYellow
	}
}

func (f *Formatter) signColor(v int64) string {
	switch {
	case v > 0:
		return ansiRed
	case v < 0:
		return ansiGreen
	default:
		return ansiYellow
	}
}

// RenderLive 单行实时报价：代码 价格 未实现损益
func (f *Formatter) RenderLive(board *domain.QuoteBoard, sum model.Summary) string {
	snap := board.Snapshot()
	lines := make(map[string]model.PortfolioLine, len(sum.Lines))
	for _, l := range sum.Lines {
		lines[l.InstrumentID] = l
	}

	var sb strings.Builder
	sb.WriteString("\r")
	sb.WriteString(f.paint("[FOLIO] ", ansiDim))

	for i, id := range board.Instruments() {
		if i > 0 {
			sb.WriteString(f.paint("  ||  ", ansiDim))
		}
		ps := snap[id]
		px := "--"
		if ps.String != "" {
			px = ps.String
		}
		sb.WriteString(id)
		sb.WriteString(" ")
		sb.WriteString(f.paint(px, f.dirColor(ps.Direction)))

		if l, ok := lines[id]; ok && ps.IsParsed {
			pl := f.unrealized(l, ps.Number)
			sb.WriteString(" ")
			sb.WriteString(f.paint(signed(pl), f.signColor(pl)))
		}
	}
	sb.WriteString(ansiClearEOL)
	return sb.String()
}

// RenderSummary 多行估值快照
func (f *Formatter) RenderSummary(sum model.Summary) string {
	var sb strings.Builder
	for _, l := range sum.Lines {
		fmt.Fprintf(&sb, "%-10s %-12s %8s 股  均價 %10.2f  現價 %10.2f  市值 %16s  損益 %s\n",
			l.InstrumentID,
			l.DisplayName,
			strconv.FormatFloat(l.Quantity, 'f', -1, 64),
			l.AvgBuyPrice,
			l.CurrentPrice,
			Money(l.MarketValue),
			f.paint(signed(l.UnrealizedProfit), f.signColor(l.UnrealizedProfit)),
		)
	}
	fmt.Fprintf(&sb, "總成本 %s  總市值 %s  未實現 %s  已實現 %s",
		Money(sum.TotalCost),
		Money(sum.TotalMarketValue),
		f.paint(signed(sum.TotalUnrealizedProfit), f.signColor(sum.TotalUnrealizedProfit)),
		f.paint(signed(sum.TotalRealizedProfit+sum.ClosedRealizedProfit), f.signColor(sum.TotalRealizedProfit+sum.ClosedRealizedProfit)),
	)
	return sb.String()
}

// unrealized 用实时价重算单行未实现损益；均价已取两位小数，结果为近似值
func (f *Formatter) unrealized(l model.PortfolioLine, price float64) int64 {
	v := decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(l.AvgBuyPrice)).
		Mul(decimal.NewFromFloat(l.Quantity))
	return v.Round(0).IntPart()
}

// Money 以新台币格式显示整数金额
func Money(amount int64) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return fmt.Sprintf("%d", amount)
	}
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	return money.New(decimal.NewFromInt(amount).Mul(factor).IntPart(), currency).Display()
}

func signed(v int64) string {
	if v > 0 {
		return "+" + Money(v)
	}
	return Money(v)
}
