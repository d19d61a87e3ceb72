package model

import "math"

// Quote 价格查询结果；查询失败时 Price 为 0
type Quote struct {
	Price  float64 `json:"price" msgpack:"p"`
	Name   string  `json:"name" msgpack:"n"`
	Source string  `json:"source,omitempty" msgpack:"s"`
}

// OK 是否拿到了有效价格（有限正数）
func (q Quote) OK() bool { return q.Price > 0 && !math.IsInf(q.Price, 1) }
