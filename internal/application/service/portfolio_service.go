package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"folio/internal/application/port"
	"folio/internal/domain/model"
	domainservice "folio/internal/domain/service"
)

// PortfolioService 账本归约 + 现价估值
type PortfolioService struct {
	repo        port.TransactionRepository
	prices      *PriceService
	cache       *SummaryCache
	concurrency int
	now         func() time.Time
}

func NewPortfolioService(repo port.TransactionRepository, prices *PriceService, cache *SummaryCache, concurrency int) *PortfolioService {
	if cache == nil {
		cache = NewSummaryCache(0, nil)
	}
	return &PortfolioService{
		repo:        repo,
		prices:      prices,
		cache:       cache,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Summary 优先返回缓存结果
func (s *PortfolioService) Summary(ctx context.Context) (model.Summary, error) {
	if sum, ok := s.cache.Get(); ok {
		return sum, nil
	}
	return s.compute(ctx)
}

// Refresh 忽略缓存重新估值，并写回缓存
func (s *PortfolioService) Refresh(ctx context.Context) (model.Summary, error) {
	return s.compute(ctx)
}

// Positions 只做账本归约，不查价
func (s *PortfolioService) Positions(ctx context.Context) ([]model.PositionAggregate, error) {
	ledger, err := s.reduce(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Aggregates(), nil
}

// OpenInstruments 当前持股为正的标的代码
func (s *PortfolioService) OpenInstruments(ctx context.Context) ([]string, error) {
	aggs, err := s.Positions(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Quantity > 0 {
			ids = append(ids, agg.InstrumentID)
		}
	}
	return ids, nil
}

func (s *PortfolioService) compute(ctx context.Context) (model.Summary, error) {
	gen := s.cache.Generation()

	ledger, err := s.reduce(ctx)
	if err != nil {
		return model.Summary{}, err
	}
	aggs := ledger.Aggregates()

	open := make([]model.Instrument, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Quantity > 0 {
			open = append(open, model.ParseInstrument(agg.InstrumentID))
		}
	}

	var quotes map[string]model.Quote
	if s.prices != nil {
		quotes = s.prices.Prefetch(ctx, open, s.concurrency)
	}
	lookup := domainservice.PriceLookupFunc(func(code string, otc bool) model.Quote {
		return quotes[model.Instrument{Code: code, Market: model.MarketFor(otc)}.ID()]
	})

	sum := domainservice.Assemble(aggs, lookup)
	sum.GeneratedAt = s.now()
	s.cache.PutIf(gen, sum)

	log.Debug().
		Int("instruments", len(aggs)).
		Int("open", len(sum.Lines)).
		Int64("market_value", sum.TotalMarketValue).
		Msg("portfolio summary computed")
	return sum, nil
}

func (s *PortfolioService) reduce(ctx context.Context) (*domainservice.Ledger, error) {
	txs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	ledger, err := domainservice.Reduce(txs)
	if err != nil {
		return nil, fmt.Errorf("reduce ledger: %w", err)
	}
	return ledger, nil
}
