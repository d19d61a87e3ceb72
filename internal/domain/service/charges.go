package service

import (
	"errors"
	"math"

	"folio/internal/domain/model"
)

const (
	LotSize     = 1000
	MinFee      = 20.0
	FeeRate     = 0.001425
	SellTaxRate = 0.003
)

var (
	ErrQuantityNotPositive = errors.New("股數必須為正數")
	ErrQuantityNotLot      = errors.New("股數必須為1000的倍數")
	ErrPriceNotPositive    = errors.New("每股價格必須為正數")
)

// ValidateOrder 下单前校验：股数为正且为整张，价格为有限正数
func ValidateOrder(quantity, price float64) error {
	if !(quantity > 0) {
		return ErrQuantityNotPositive
	}
	if !IsWholeLot(quantity) {
		return ErrQuantityNotLot
	}
	if !(price > 0) || math.IsInf(price, 1) {
		return ErrPriceNotPositive
	}
	return nil
}

// IsWholeLot 是否为 LotSize 的整数倍
func IsWholeLot(quantity float64) bool {
	return math.Mod(quantity, LotSize) == 0
}

// Charges 手续费（最低 20 元）与证交税（仅卖出）
func Charges(side model.Side, quantity, price float64) (fee, tax float64) {
	amount := quantity * price
	fee = math.Max(MinFee, amount*FeeRate)
	if side == model.SideSell {
		tax = amount * SellTaxRate
	}
	return fee, tax
}
