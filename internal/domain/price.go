package domain

import (
	"math"
	"strconv"
)

// Direction 价格变动方向
type Direction int

const (
	DirectionSame Direction = 0
	DirectionUp   Direction = +1
	DirectionDown Direction = -1
)

// PriceState 单个标的的最新报价
type PriceState struct {
	String    string
	Number    float64
	HasValue  bool
	Direction Direction
	IsParsed  bool
}

// Update 写入新报价，返回是否发生变化
func (ps *PriceState) Update(price string) bool {
	if price == ps.String {
		return false
	}
	ps.String = price

	n, err := strconv.ParseFloat(price, 64)
	if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		ps.IsParsed = false
		ps.Direction = DirectionSame
		return true
	}
	ps.IsParsed = true

	if !ps.HasValue {
		ps.HasValue = true
		ps.Number = n
		ps.Direction = DirectionSame
		return true
	}

	switch {
	case n > ps.Number:
		ps.Direction = DirectionUp
	case n < ps.Number:
		ps.Direction = DirectionDown
	default:
		ps.Direction = DirectionSame
	}
	ps.Number = n
	return true
}
