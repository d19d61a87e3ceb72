package port

import (
	"context"
	"time"

	"folio/internal/domain/model"
)

// QuoteSource 单个行情来源，网络或解析失败时返回错误
type QuoteSource interface {
	Name() string
	Quote(ctx context.Context, inst model.Instrument) (model.Quote, error)
}

// QuoteMemo 进程内短期报价缓存
type QuoteMemo interface {
	Get(key string) (model.Quote, bool)
	Set(key string, q model.Quote)
}

// QuoteStore 跨进程共享的报价缓存（如 Redis）
type QuoteStore interface {
	GetQuote(ctx context.Context, key string) (model.Quote, bool, error)
	SetQuote(ctx context.Context, key string, q model.Quote, ttl time.Duration) error
}

// NameDirectory 本地股票名称表
type NameDirectory interface {
	Lookup(code string, market model.Market) (string, bool)
}

type Tick struct {
	Source       string  // 行情源名称
	InstrumentID string  // "2330.TW"
	PriceStr     string  // raw string
	PriceNum     float64 // parsed float64 (best-effort)
	Ts           int64   // unix ms
}

// TickFeed 推送式行情
type TickFeed interface {
	Name() string
	Subscribe(ctx context.Context, instrumentIDs []string) (<-chan Tick, error)
}
