package service

import (
	"math"
	"testing"

	"folio/internal/domain/model"
)

func fixedPrices(prices map[string]float64) PriceLookup {
	return PriceLookupFunc(func(code string, otc bool) model.Quote {
		key := model.Instrument{Code: code, Market: model.MarketFor(otc)}.ID()
		return model.Quote{Price: prices[key], Name: "q-" + code}
	})
}

func TestAssembleUnrealized(t *testing.T) {
	l, _ := Reduce([]model.Transaction{
		buy("2330.TW", 1000, 50, 20),
		buy("2330.TW", 1000, 70, 20),
	})
	sum := Assemble(l.Aggregates(), fixedPrices(map[string]float64{"2330.TW": 80}))

	if len(sum.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(sum.Lines))
	}
	line := sum.Lines[0]
	if line.AvgBuyPrice != 60.02 {
		t.Errorf("AvgBuyPrice = %v", line.AvgBuyPrice)
	}
	if line.UnrealizedProfit != 39960 {
		t.Errorf("UnrealizedProfit = %d, want 39960", line.UnrealizedProfit)
	}
	if line.MarketValue != 160000 || line.TotalCost != 120040 {
		t.Errorf("unexpected line %+v", line)
	}
	if sum.TotalCost != 120040 || sum.TotalMarketValue != 160000 || sum.TotalUnrealizedProfit != 39960 {
		t.Errorf("unexpected totals %+v", sum)
	}
}

func TestAssembleSkipsClosedPositions(t *testing.T) {
	l, _ := Reduce([]model.Transaction{
		buy("2330.TW", 1000, 50, 20),
		sell("2330.TW", 1000, 60, 20, 0),
	})
	calls := 0
	lookup := PriceLookupFunc(func(string, bool) model.Quote {
		calls++
		return model.Quote{Price: 100}
	})
	sum := Assemble(l.Aggregates(), lookup)

	if len(sum.Lines) != 0 {
		t.Fatalf("closed position must not produce a line: %+v", sum.Lines)
	}
	if calls != 0 {
		t.Errorf("lookup called %d times for a closed position", calls)
	}
	if sum.TotalRealizedProfit != 0 {
		t.Errorf("TotalRealizedProfit = %d, want 0", sum.TotalRealizedProfit)
	}
	if len(sum.Closed) != 1 || sum.Closed[0].RealizedProfit != 9960 || sum.ClosedRealizedProfit != 9960 {
		t.Errorf("closed ledger = %+v / %d", sum.Closed, sum.ClosedRealizedProfit)
	}
}

func TestAssembleZeroPrice(t *testing.T) {
	l, _ := Reduce([]model.Transaction{buy("6488.TWO", 2000, 30, 20)})
	sum := Assemble(l.Aggregates(), fixedPrices(nil))

	line := sum.Lines[0]
	if line.CurrentPrice != 0 || line.MarketValue != 0 {
		t.Fatalf("unexpected line %+v", line)
	}
	if line.UnrealizedProfit != -60020 {
		t.Errorf("UnrealizedProfit = %d, want -60020", line.UnrealizedProfit)
	}
}

func TestAssembleNilLookup(t *testing.T) {
	l, _ := Reduce([]model.Transaction{buy("X.TW", 1000, 10, 20)})
	sum := Assemble(l.Aggregates(), nil)
	if len(sum.Lines) != 1 || sum.Lines[0].CurrentPrice != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestAssembleMarketFlag(t *testing.T) {
	var gotCode string
	var gotOTC bool
	lookup := PriceLookupFunc(func(code string, otc bool) model.Quote {
		gotCode, gotOTC = code, otc
		return model.Quote{Price: 1}
	})
	l, _ := Reduce([]model.Transaction{buy("6488.TWO", 1000, 1, 0)})
	Assemble(l.Aggregates(), lookup)
	if gotCode != "6488" || !gotOTC {
		t.Fatalf("lookup got code=%s otc=%v", gotCode, gotOTC)
	}
}

func TestAssembleTotalsSumLines(t *testing.T) {
	l, _ := Reduce([]model.Transaction{
		buy("A.TW", 1000, 10, 20),
		buy("B.TWO", 2000, 20, 57),
		sell("A.TW", 0, 0, 0, 0),
		buy("C.TW", 1000, 5, 20),
		sell("C.TW", 2000, 6, 20, 36),
	})
	sum := Assemble(l.Aggregates(), fixedPrices(map[string]float64{"A.TW": 12, "B.TWO": 19}))
	if len(sum.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(sum.Lines))
	}
	var cost, value int64
	for _, line := range sum.Lines {
		cost += line.TotalCost
		value += line.MarketValue
	}
	if cost != sum.TotalCost || value != sum.TotalMarketValue {
		t.Fatalf("totals %d/%d do not match lines %d/%d", sum.TotalCost, sum.TotalMarketValue, cost, value)
	}
	if len(sum.Closed) != 1 || sum.Closed[0].InstrumentID != "C.TW" || sum.Closed[0].Quantity != -1000 {
		t.Fatalf("closed = %+v", sum.Closed)
	}
}

func TestAssembleDisplayNameFallback(t *testing.T) {
	aggs := []model.PositionAggregate{
		{InstrumentID: "A.TW", Quantity: 1000, BuyQuantity: 1000, TotalCost: 1000},
		{InstrumentID: "B.TW", Quantity: 1000, BuyQuantity: 1000, TotalCost: 1000},
	}
	lookup := PriceLookupFunc(func(code string, _ bool) model.Quote {
		if code == "A" {
			return model.Quote{Name: "Alpha"}
		}
		return model.Quote{}
	})
	sum := Assemble(aggs, lookup)
	if sum.Lines[0].DisplayName != "Alpha" || sum.Lines[1].DisplayName != UnknownName {
		t.Fatalf("names = %s / %s", sum.Lines[0].DisplayName, sum.Lines[1].DisplayName)
	}
}

func TestAssembleNonFiniteInputs(t *testing.T) {
	l, _ := Reduce([]model.Transaction{
		buy("2330.TW", 1000, math.NaN(), 20),
		buy("6488.TWO", 1000, 400, 570),
		buy("2317.TW", 1000, 100, 143),
	})
	sum := Assemble(l.Aggregates(), PriceLookupFunc(func(code string, otc bool) model.Quote {
		switch code {
		case "6488":
			return model.Quote{Price: math.Inf(1)}
		case "2317":
			return model.Quote{Price: math.NaN()}
		}
		return model.Quote{Price: 600}
	}))

	if len(sum.Lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(sum.Lines))
	}
	if sum.Lines[0].TotalCost != 0 || sum.Lines[0].AvgBuyPrice != 0 {
		t.Errorf("NaN cost should render as 0: %+v", sum.Lines[0])
	}
	for _, line := range sum.Lines[1:] {
		if line.CurrentPrice != 0 || line.MarketValue != 0 {
			t.Errorf("non-finite price should count as missing: %+v", line)
		}
	}
	if sum.Lines[1].UnrealizedProfit != -400570 {
		t.Errorf("UnrealizedProfit = %d, want -400570", sum.Lines[1].UnrealizedProfit)
	}
}
