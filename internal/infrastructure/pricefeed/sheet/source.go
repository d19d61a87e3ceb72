package sheet

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"folio/internal/domain/model"
	"folio/internal/infrastructure/pricefeed"
)

const Name = "sheet"

var ErrBadHeader = errors.New("sheet: header must start with Code,Market,Price")

// Source 手工维护的价格覆盖表（本地 CSV 或发布为 CSV 的试算表 URL）
// 表头：Code,Market,Price[,Name]
type Source struct {
	location string
	reload   time.Duration
	client   *http.Client
	now      func() time.Time

	mu       sync.Mutex
	loadedAt time.Time
	rows     map[string]model.Quote
}

func New(location string, reload time.Duration, client *http.Client) *Source {
	if client == nil {
		client = pricefeed.NewHTTPClient(0)
	}
	return &Source{
		location: strings.TrimSpace(location),
		reload:   reload,
		client:   client,
		now:      time.Now,
	}
}

func (s *Source) Name() string { return Name }

func (s *Source) Quote(ctx context.Context, inst model.Instrument) (model.Quote, error) {
	rows, err := s.table(ctx)
	if err != nil {
		return model.Quote{}, err
	}
	q, ok := rows[inst.ID()]
	if !ok {
		return model.Quote{}, pricefeed.ErrNotFound
	}
	return q, nil
}

// table 过期才重新读取；读取失败时沿用旧表
func (s *Source) table(ctx context.Context) (map[string]model.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rows != nil && s.now().Sub(s.loadedAt) < s.reload {
		return s.rows, nil
	}

	rows, err := s.load(ctx)
	if err != nil {
		if s.rows != nil {
			log.Warn().Err(err).Str("source", s.location).Msg("sheet reload failed, keeping previous table")
			s.loadedAt = s.now()
			return s.rows, nil
		}
		return nil, err
	}
	s.rows = rows
	s.loadedAt = s.now()
	return rows, nil
}

func (s *Source) load(ctx context.Context) (map[string]model.Quote, error) {
	var body []byte
	var err error
	if strings.HasPrefix(s.location, "http://") || strings.HasPrefix(s.location, "https://") {
		body, err = pricefeed.Fetch(ctx, s.client, Name, s.location)
	} else {
		body, err = os.ReadFile(s.location)
	}
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(body))
}

// Parse 解析覆盖表，价格无效的行会被跳过
func Parse(r io.Reader) (map[string]model.Quote, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(3); err == nil && bytes.Equal(head, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("sheet header: %w", err)
	}
	if len(header) < 3 ||
		!strings.EqualFold(strings.TrimSpace(header[0]), "Code") ||
		!strings.EqualFold(strings.TrimSpace(header[1]), "Market") ||
		!strings.EqualFold(strings.TrimSpace(header[2]), "Price") {
		return nil, ErrBadHeader
	}

	rows := make(map[string]model.Quote)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 3 {
			continue
		}
		market, err := model.ParseMarket(rec[1])
		if err != nil {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil || !(price > 0) || math.IsInf(price, 1) {
			continue
		}
		q := model.Quote{Price: price, Source: Name}
		if len(rec) > 3 {
			q.Name = strings.TrimSpace(rec[3])
		}
		inst := model.Instrument{Code: strings.TrimSpace(rec[0]), Market: market}
		rows[inst.ID()] = q
	}
	return rows, nil
}
