package pricefeed

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"folio/internal/application/port"
	"folio/internal/infrastructure/config"
	"folio/internal/infrastructure/resilience"
)

// ErrNotFound 行情源没有该标的
var ErrNotFound = errors.New("quote not found")

// Factory 根据配置创建行情源
type Factory func(cfg *config.Config) (port.QuoteSource, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]Factory)
)

// Register 注册行情源工厂，由各行情源包的 init() 调用
func Register(name string, factory Factory) {
	if factory == nil {
		log.Warn().Str("source", name).Msg("invalid quote source factory")
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		log.Warn().Str("source", name).Msg("quote source factory already registered, overwriting")
	}
	registry[name] = factory
}

// Get 获取已注册的工厂
func Get(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := registry[name]
	return factory, ok
}

// Names 已注册的行情源名称
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Build 按配置顺序创建行情源，并包上熔断和限流
func Build(cfg *config.Config) ([]port.QuoteSource, error) {
	sources := make([]port.QuoteSource, 0, len(cfg.Prices.Sources))
	for _, name := range cfg.Prices.Sources {
		factory, ok := Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown quote source %q (registered: %v)", name, Names())
		}
		src, err := factory(cfg)
		if err != nil {
			return nil, fmt.Errorf("create quote source %s: %w", name, err)
		}

		breaker := resilience.NewBreaker("quote:"+name, resilience.BreakerConfig{
			MinRequests:  cfg.Prices.Breaker.MinRequests,
			FailureRatio: cfg.Prices.Breaker.FailureRatio,
			OpenTimeout:  cfg.Prices.Breaker.OpenTimeout,
		})
		limiter := rate.NewLimiter(rate.Limit(cfg.Prices.RatePerSec), cfg.Prices.Burst)
		sources = append(sources, Guard(src, breaker, limiter))
		log.Info().Str("source", name).Msg("✓ Quote source enabled")
	}
	return sources, nil
}
