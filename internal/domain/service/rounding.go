package service

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundUnit 四舍五入到整数元（远离零方向进位），NaN 与 Inf 视为 0
func RoundUnit(v float64) int64 {
	if !finite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(0).IntPart()
}

// Round2 四舍五入到两位小数，NaN 与 Inf 视为 0
func Round2(v float64) float64 {
	if !finite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
