package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"folio/internal/application/port"
	"folio/internal/domain/model"
)

type PriceServiceDeps struct {
	Sources  []port.QuoteSource // 按优先级排列
	Names    port.NameDirectory // 可为 nil
	Memo     port.QuoteMemo     // 可为 nil
	Store    port.QuoteStore    // 可为 nil
	StoreTTL time.Duration
	Timeout  time.Duration // 单次查价的总超时
}

// PriceService 对外的现价查询，从不返回错误：查不到时价格为 0
type PriceService struct {
	deps  PriceServiceDeps
	group singleflight.Group
	log   zerolog.Logger
}

func NewPriceService(deps PriceServiceDeps) *PriceService {
	if deps.Timeout <= 0 {
		deps.Timeout = 15 * time.Second
	}
	return &PriceService{
		deps: deps,
		log:  log.With().Str("component", "price").Logger(),
	}
}

// Quote 依次查询 进程缓存 → 共享缓存 → 各行情源
func (s *PriceService) Quote(ctx context.Context, inst model.Instrument) model.Quote {
	key := inst.ID()
	if s.deps.Memo != nil {
		if q, ok := s.deps.Memo.Get(key); ok {
			return s.withName(inst, q)
		}
	}

	v, _, _ := s.group.Do(key, func() (any, error) {
		return s.fetch(ctx, inst), nil
	})
	return s.withName(inst, v.(model.Quote))
}

// Prefetch 并发查询多只标的，结果以带后缀的代码为键
func (s *PriceService) Prefetch(ctx context.Context, insts []model.Instrument, concurrency int) map[string]model.Quote {
	if concurrency <= 0 {
		concurrency = 1
	}
	out := make(map[string]model.Quote, len(insts))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, inst := range insts {
		inst := inst
		g.Go(func() error {
			q := s.Quote(gctx, inst)
			mu.Lock()
			out[inst.ID()] = q
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *PriceService) fetch(ctx context.Context, inst model.Instrument) model.Quote {
	key := inst.ID()
	// singleflight 共享结果，不受单个调用方取消的影响
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deps.Timeout)
	defer cancel()

	if s.deps.Store != nil {
		q, ok, err := s.deps.Store.GetQuote(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Str("instrument", key).Msg("quote store read failed")
		} else if ok && q.OK() {
			s.remember(key, q)
			return q
		}
	}

	var fallbackName string
	for _, src := range s.deps.Sources {
		q, err := src.Quote(ctx, inst)
		if err != nil {
			if q.Name != "" && fallbackName == "" {
				fallbackName = q.Name
			}
			ev := s.log.Warn()
			if errors.Is(err, context.Canceled) {
				ev = s.log.Debug()
			}
			ev.Err(err).Str("source", src.Name()).Str("instrument", key).Msg("quote source failed")
			continue
		}
		if !q.OK() {
			continue
		}
		if q.Source == "" {
			q.Source = src.Name()
		}
		s.log.Debug().Str("source", q.Source).Str("instrument", key).Float64("price", q.Price).Msg("quote fetched")
		s.remember(key, q)
		if s.deps.Store != nil {
			if err := s.deps.Store.SetQuote(ctx, key, q, s.deps.StoreTTL); err != nil {
				s.log.Warn().Err(err).Str("instrument", key).Msg("quote store write failed")
			}
		}
		return q
	}

	s.log.Error().Str("instrument", key).Int("sources", len(s.deps.Sources)).Msg("no quote available")
	return model.Quote{Name: fallbackName}
}

func (s *PriceService) remember(key string, q model.Quote) {
	if s.deps.Memo != nil {
		s.deps.Memo.Set(key, q)
	}
}

// withName 名称表优先于行情源返回的名称
func (s *PriceService) withName(inst model.Instrument, q model.Quote) model.Quote {
	if s.deps.Names != nil {
		if name, ok := s.deps.Names.Lookup(inst.Code, inst.Market); ok {
			q.Name = name
		}
	}
	return q
}
