package monitor

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"folio/internal/application/port"
	"folio/internal/domain"
	"folio/internal/domain/model"
)

// ErrNoPositions 账本中没有持股
var ErrNoPositions = errors.New("no open positions")

// Valuer 重新估值（通常是 PortfolioService）
type Valuer interface {
	Refresh(ctx context.Context) (model.Summary, error)
}

type ServiceDeps struct {
	Feeds         []port.TickFeed // 为空时按 PollEvery 轮询估值
	Valuer        Valuer
	Sink          port.Sink
	SnapshotEvery time.Duration
	PollEvery     time.Duration
	Color         bool
}

// Service 终端盯盘：实时刷新一行报价，定时输出估值快照
type Service struct {
	deps  ServiceDeps
	board *domain.QuoteBoard
	fmt   *Formatter
	sum   model.Summary
}

func NewService(deps ServiceDeps) *Service {
	if deps.SnapshotEvery <= 0 {
		deps.SnapshotEvery = 5 * time.Minute
	}
	if deps.PollEvery <= 0 {
		deps.PollEvery = 30 * time.Second
	}
	return &Service{
		deps: deps,
		fmt:  NewFormatter(deps.Color),
	}
}

func (s *Service) Run(ctx context.Context) error {
	sum, err := s.deps.Valuer.Refresh(ctx)
	if err != nil {
		return err
	}
	if len(sum.Lines) == 0 {
		return ErrNoPositions
	}
	s.sum = sum

	ids := make([]string, 0, len(sum.Lines))
	for _, l := range sum.Lines {
		ids = append(ids, l.InstrumentID)
	}
	s.board = domain.NewQuoteBoard(ids)
	s.seed(sum)

	merged := make(chan port.Tick, 1024)
	for _, feed := range s.deps.Feeds {
		ch, err := feed.Subscribe(ctx, ids)
		if err != nil {
			return err
		}
		go func(in <-chan port.Tick) {
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-in:
					if !ok {
						return
					}
					select {
					case merged <- t:
					case <-ctx.Done():
						return
					}
				}
			}
		}(ch)

		log.Info().Str("feed", feed.Name()).Int("instruments", len(ids)).Msg("feed started")
	}

	// 没有推送源时靠轮询估值更新报价
	var pollC <-chan time.Time
	if len(s.deps.Feeds) == 0 {
		poll := time.NewTicker(s.deps.PollEvery)
		defer poll.Stop()
		pollC = poll.C
		log.Info().Dur("every", s.deps.PollEvery).Msg("no tick feed configured, polling quotes")
	}

	snapTicker := time.NewTicker(s.deps.SnapshotEvery)
	defer snapTicker.Stop()

	_ = s.deps.Sink.WriteSnapshot(time.Now(), s.fmt.RenderSummary(s.sum))
	_ = s.deps.Sink.WriteLive(s.fmt.RenderLive(s.board, s.sum))

	for {
		select {
		case <-ctx.Done():
			_ = s.deps.Sink.NewLine()
			return ctx.Err()

		case now := <-snapTicker.C:
			if s.refresh(ctx) {
				_ = s.deps.Sink.WriteSnapshot(now, s.fmt.RenderSummary(s.sum))
			}
			_ = s.deps.Sink.WriteLive(s.fmt.RenderLive(s.board, s.sum))

		case <-pollC:
			if s.refresh(ctx) {
				_ = s.deps.Sink.WriteLive(s.fmt.RenderLive(s.board, s.sum))
			}

		case t := <-merged:
			if s.board.Update(t.InstrumentID, t.PriceStr) {
				_ = s.deps.Sink.WriteLive(s.fmt.RenderLive(s.board, s.sum))
			}
		}
	}
}

func (s *Service) refresh(ctx context.Context) bool {
	sum, err := s.deps.Valuer.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Msg("portfolio refresh failed")
		}
		return false
	}
	s.sum = sum
	s.seed(sum)
	return true
}

// seed 用估值结果里的现价更新面板，价格为 0 表示未取得
func (s *Service) seed(sum model.Summary) {
	for _, l := range sum.Lines {
		if l.CurrentPrice <= 0 {
			continue
		}
		s.board.Track(l.InstrumentID)
		s.board.Update(l.InstrumentID, strconv.FormatFloat(l.CurrentPrice, 'f', -1, 64))
	}
}
