package pricefeed

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"folio/internal/application/port"
	"folio/internal/domain/model"
	"folio/internal/infrastructure/metrics"
	"folio/internal/infrastructure/resilience"
)

// guarded 为行情源加上限流、熔断和指标
type guarded struct {
	src     port.QuoteSource
	breaker *resilience.Breaker
	limiter *rate.Limiter
}

// Guard 包装行情源；breaker 与 limiter 可为 nil
func Guard(src port.QuoteSource, breaker *resilience.Breaker, limiter *rate.Limiter) port.QuoteSource {
	return &guarded{src: src, breaker: breaker, limiter: limiter}
}

func (g *guarded) Name() string { return g.src.Name() }

func (g *guarded) Quote(ctx context.Context, inst model.Instrument) (model.Quote, error) {
	name := g.src.Name()
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			metrics.QuoteRequests.WithLabelValues(name, "rejected").Inc()
			return model.Quote{}, err
		}
	}

	start := time.Now()
	q, err := resilience.Execute(g.breaker, func() (model.Quote, error) {
		q, err := g.src.Quote(ctx, inst)
		if errors.Is(err, ErrNotFound) {
			// 查无此标的不算来源故障，保留可能带回的名称
			return model.Quote{Name: q.Name, Source: q.Source}, nil
		}
		return q, err
	})
	metrics.QuoteLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, resilience.ErrUnavailable):
		metrics.QuoteRequests.WithLabelValues(name, "rejected").Inc()
		return model.Quote{}, err
	case err != nil:
		metrics.QuoteRequests.WithLabelValues(name, "error").Inc()
		return model.Quote{}, err
	case !q.OK():
		metrics.QuoteRequests.WithLabelValues(name, "not_found").Inc()
		return model.Quote{Name: q.Name, Source: q.Source}, ErrNotFound
	}
	metrics.QuoteRequests.WithLabelValues(name, "ok").Inc()
	return q, nil
}
