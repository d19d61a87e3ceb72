package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"folio/internal/application/port"
	"folio/internal/domain/model"
	"folio/internal/infrastructure/metrics"
	"folio/internal/infrastructure/resilience"
)

// Repo 共享报价缓存 + 账本变更事件
type Repo struct {
	rdb        *redis.Client
	prefix     string
	breaker    *resilience.Breaker
	ledgerLog  string // stream
	ledgerChan string // pub/sub
}

type ledgerEvent struct {
	Reason string `msgpack:"reason"`
	Count  int    `msgpack:"count"`
	TsMs   int64  `msgpack:"ts_ms"`
}

func New(rdb *redis.Client, prefix string, breaker *resilience.Breaker) *Repo {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "folio"
	}
	return &Repo{
		rdb:        rdb,
		prefix:     prefix,
		breaker:    breaker,
		ledgerLog:  prefix + ":ledger",
		ledgerChan: prefix + ":ledger:pub",
	}
}

func (r *Repo) quoteKey(key string) string {
	return fmt.Sprintf("%s:quote:%s", r.prefix, key)
}

// GetQuote 读取报价，键不存在时返回 ok=false
func (r *Repo) GetQuote(ctx context.Context, key string) (model.Quote, bool, error) {
	b, err := resilience.Execute(r.breaker, func() ([]byte, error) {
		b, err := r.rdb.Get(ctx, r.quoteKey(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		return model.Quote{}, false, err
	}
	metrics.Hit("redis_quote", b != nil)
	if b == nil {
		return model.Quote{}, false, nil
	}

	var q model.Quote
	if err := msgpack.Unmarshal(b, &q); err != nil {
		return model.Quote{}, false, fmt.Errorf("decode quote %s: %w", key, err)
	}
	return q, true, nil
}

// SetQuote 写入报价，只缓存有效价格
func (r *Repo) SetQuote(ctx context.Context, key string, q model.Quote, ttl time.Duration) error {
	if !q.OK() {
		return nil
	}
	b, err := msgpack.Marshal(q)
	if err != nil {
		return err
	}
	_, err = resilience.Execute(r.breaker, func() (struct{}, error) {
		return struct{}{}, r.rdb.Set(ctx, r.quoteKey(key), b, ttl).Err()
	})
	return err
}

// PublishLedgerChanged 写入 stream 并广播
func (r *Repo) PublishLedgerChanged(ctx context.Context, reason string, count int) error {
	ev := ledgerEvent{Reason: reason, Count: count, TsMs: time.Now().UnixMilli()}

	// 1) Stream: XADD <stream> * reason count ts_ms
	_, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.ledgerLog,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]any{
			"reason": ev.Reason,
			"count":  ev.Count,
			"ts_ms":  ev.TsMs,
		},
	}).Result()
	if err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> msgpack
	payload, err := msgpack.Marshal(ev)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.ledgerChan, payload).Err()
}

var (
	_ port.QuoteStore      = (*Repo)(nil)
	_ port.LedgerPublisher = (*Repo)(nil)
)
