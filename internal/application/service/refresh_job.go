package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RefreshJob 定时重算估值，让请求尽量命中缓存
type RefreshJob struct {
	portfolio *PortfolioService
	timeout   time.Duration
}

func NewRefreshJob(portfolio *PortfolioService, timeout time.Duration) *RefreshJob {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &RefreshJob{portfolio: portfolio, timeout: timeout}
}

func (j *RefreshJob) Name() string { return "portfolio-refresh" }

func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	sum, err := j.portfolio.Refresh(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Int("lines", len(sum.Lines)).
		Int64("market_value", sum.TotalMarketValue).
		Dur("took", time.Since(start)).
		Msg("portfolio refreshed")
	return nil
}
