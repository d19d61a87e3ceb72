package container

import (
	"sync"
	"time"

	"folio/internal/application/port"
	"folio/internal/application/service"
)

// Deps 由基础设施层组装好的端口实现
type Deps struct {
	Repo      port.TransactionRepository
	Codec     port.TransactionCodec
	Publisher port.LedgerPublisher // 可为 nil
	Prices    service.PriceServiceDeps

	SummaryTTL     time.Duration
	Concurrency    int
	RefreshTimeout time.Duration
}

// Container 按需创建应用服务，同一进程内共享一份 SummaryCache
// HTTP handler 会并发调用各 getter，每个服务只创建一次
type Container struct {
	deps Deps

	summaryCacheOnce       sync.Once
	priceServiceOnce       sync.Once
	portfolioServiceOnce   sync.Once
	transactionServiceOnce sync.Once
	nameServiceOnce        sync.Once
	refreshJobOnce         sync.Once

	summaryCache       *service.SummaryCache
	priceService       *service.PriceService
	portfolioService   *service.PortfolioService
	transactionService *service.TransactionService
	nameService        *service.NameService
	refreshJob         *service.RefreshJob
}

func New(deps Deps) *Container {
	return &Container{
		deps: deps,
	}
}

func (c *Container) Repository() port.TransactionRepository {
	return c.deps.Repo
}

func (c *Container) SummaryCache() *service.SummaryCache {
	c.summaryCacheOnce.Do(func() {
		c.summaryCache = service.NewSummaryCache(c.deps.SummaryTTL, nil)
	})
	return c.summaryCache
}

func (c *Container) PriceService() *service.PriceService {
	c.priceServiceOnce.Do(func() {
		c.priceService = service.NewPriceService(c.deps.Prices)
	})
	return c.priceService
}

func (c *Container) PortfolioService() *service.PortfolioService {
	c.portfolioServiceOnce.Do(func() {
		c.portfolioService = service.NewPortfolioService(c.deps.Repo, c.PriceService(), c.SummaryCache(), c.deps.Concurrency)
	})
	return c.portfolioService
}

func (c *Container) TransactionService() *service.TransactionService {
	c.transactionServiceOnce.Do(func() {
		c.transactionService = service.NewTransactionService(c.deps.Repo, c.deps.Codec, c.SummaryCache(), c.deps.Publisher)
	})
	return c.transactionService
}

func (c *Container) NameService() *service.NameService {
	c.nameServiceOnce.Do(func() {
		c.nameService = service.NewNameService(c.deps.Prices.Names, c.PriceService())
	})
	return c.nameService
}

func (c *Container) RefreshJob() *service.RefreshJob {
	c.refreshJobOnce.Do(func() {
		c.refreshJob = service.NewRefreshJob(c.PortfolioService(), c.deps.RefreshTimeout)
	})
	return c.refreshJob
}

func (c *Container) Close() error {
	return c.deps.Repo.Close()
}
