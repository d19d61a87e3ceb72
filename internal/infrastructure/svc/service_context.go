package svc

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"folio/internal/application/container"
	"folio/internal/application/port"
	"folio/internal/application/service"
	"folio/internal/application/usecase/monitor"
	"folio/internal/domain/model"
	"folio/internal/infrastructure/cache"
	"folio/internal/infrastructure/config"
	"folio/internal/infrastructure/names"
	"folio/internal/infrastructure/pricefeed"
	"folio/internal/infrastructure/pricefeed/stream"
	"folio/internal/infrastructure/resilience"
	"folio/internal/infrastructure/storage"
	"folio/internal/infrastructure/storage/composite"
	"folio/internal/infrastructure/storage/csvfile"
	"folio/internal/infrastructure/storage/postgres"
	redisrepo "folio/internal/infrastructure/storage/redis"
	"folio/internal/infrastructure/storage/sqlite"
	"folio/internal/interfaces/console"

	// 行情源通过 init() 注册
	_ "folio/internal/infrastructure/pricefeed/sheet"
	_ "folio/internal/infrastructure/pricefeed/twse"
	_ "folio/internal/infrastructure/pricefeed/yahoo"
)

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	// 基础设施层（第一层初始化）
	repo        port.TransactionRepository
	redisClient *redisclient.Client
	redisRepo   *redisrepo.Repo
	names       *names.Directory
	quoteMemo   *cache.TTL[string, model.Quote]
	sources     []port.QuoteSource
	feeds       []port.TickFeed

	// 输出端口
	Sink port.Sink

	// 应用层
	Container *container.Container

	// 资源管理
	closerChain []func() error
}

// New 创建并初始化 ServiceContext
// 这是应用启动的唯一入口点，所有依赖初始化都在这里完成
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		Sink:        console.NewSink(),
		closerChain: make([]func() error, 0),
	}

	if err := sc.initializeComponents(); err != nil {
		// 清理已初始化的资源
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

// initializeComponents 按依赖顺序初始化
func (sc *ServiceContext) initializeComponents() error {
	if err := sc.initializeStorage(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageInitFailed, err)
	}

	if sc.Config.Redis.Enabled {
		if err := sc.initRedis(); err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
	}

	sc.names = names.Load(sc.Config.Names.Path)
	sc.quoteMemo = cache.NewTTL[string, model.Quote](sc.Config.Prices.CacheTTL, cache.WithName("quote"))

	sources, err := pricefeed.Build(sc.Config)
	if err != nil {
		return fmt.Errorf("quote sources: %w", err)
	}
	sc.sources = sources

	if sc.Config.Stream.Enabled {
		sc.feeds = append(sc.feeds, stream.NewFeed(sc.Config.Stream.URL))
	}

	sc.Container = container.New(sc.containerDeps())

	log.Info().
		Strs("storage", sc.Config.Backends()).
		Int("sources", len(sc.sources)).
		Int("names", sc.names.Len()).
		Bool("redis", sc.redisRepo != nil).
		Msg("✓ All components initialized")
	return nil
}

func (sc *ServiceContext) containerDeps() container.Deps {
	deps := container.Deps{
		Repo:  sc.repo,
		Codec: csvfile.Codec{},
		Prices: service.PriceServiceDeps{
			Sources: sc.sources,
			Names:   sc.names,
			Memo:    sc.quoteMemo,
			Timeout: sc.Config.Prices.Timeout,
		},
		SummaryTTL:     sc.Config.Summary.CacheTTL,
		Concurrency:    sc.Config.Prices.Concurrency,
		RefreshTimeout: sc.Config.Refresh.Timeout,
	}
	// 接口值为 nil 指针时不等于 nil，只在启用时赋值
	if sc.redisRepo != nil {
		deps.Publisher = sc.redisRepo
		deps.Prices.Store = sc.redisRepo
		deps.Prices.StoreTTL = sc.Config.Redis.QuoteTTL
	}
	return deps
}

// initializeStorage 主存储 + 镜像
func (sc *ServiceContext) initializeStorage() error {
	backends := sc.Config.Backends()
	repos := make([]port.TransactionRepository, 0, len(backends))
	for _, backend := range backends {
		repo, err := sc.openBackend(backend)
		if err != nil {
			for _, r := range repos {
				_ = r.Close()
			}
			return fmt.Errorf("%s: %w", backend, err)
		}
		repos = append(repos, repo)
	}

	if len(repos) == 1 {
		sc.repo = repos[0]
	} else {
		sc.repo = composite.New(repos...)
	}

	repo := sc.repo
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing transaction storage")
		return repo.Close()
	})
	return nil
}

func (sc *ServiceContext) openBackend(backend string) (port.TransactionRepository, error) {
	switch backend {
	case "csv":
		repo, err := csvfile.New(sc.Config.CSV.TransactionsPath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", repo.Path()).Msg("✓ CSV ledger initialized")
		return repo, nil
	case "sqlite":
		repo, err := sqlite.New(sc.Config.SQLite.Path)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", sc.Config.SQLite.Path).Msg("✓ SQLite initialized")
		return repo, nil
	case "postgres":
		repo, err := postgres.New(sc.Config.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("✓ Postgres initialized")
		return repo, nil
	case "memory":
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, backend)
	}
}

// initRedis 初始化 Redis 连接
func (sc *ServiceContext) initRedis() error {
	rdb := redisclient.NewClient(&redisclient.Options{
		Addr:     sc.Config.Redis.Addr,
		Password: sc.Config.Redis.Password,
		DB:       sc.Config.Redis.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(sc.Ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	sc.redisClient = rdb
	breaker := resilience.NewBreaker("redis", resilience.BreakerConfig{
		MinRequests:  sc.Config.Prices.Breaker.MinRequests,
		FailureRatio: sc.Config.Prices.Breaker.FailureRatio,
		OpenTimeout:  sc.Config.Prices.Breaker.OpenTimeout,
	})
	sc.redisRepo = redisrepo.New(rdb, sc.Config.Redis.Prefix, breaker)

	// 注册关闭回调
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", sc.Config.Redis.Addr).
		Int("db", sc.Config.Redis.DB).
		Msg("✓ Redis initialized")
	return nil
}

// BuildMonitorServiceDeps 构建盯盘所需的依赖
func (sc *ServiceContext) BuildMonitorServiceDeps(color bool) monitor.ServiceDeps {
	return monitor.ServiceDeps{
		Feeds:         sc.feeds,
		Valuer:        sc.Container.PortfolioService(),
		Sink:          sc.Sink,
		SnapshotEvery: sc.Config.Watch.SnapshotInterval,
		PollEvery:     sc.Config.Prices.CacheTTL,
		Color:         color,
	}
}

// QuoteMemo 进程内报价缓存，供定时清理使用
func (sc *ServiceContext) QuoteMemo() *cache.TTL[string, model.Quote] {
	return sc.quoteMemo
}

// Close 按照相反的顺序关闭所有资源
func (sc *ServiceContext) Close() error {
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	sc.closerChain = nil
	return nil
}
