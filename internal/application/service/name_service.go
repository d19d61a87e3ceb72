package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"folio/internal/application/port"
	"folio/internal/domain/model"
)

// NameResult 名称查询结果
type NameResult struct {
	Name      string `json:"name"`
	IsEnglish bool   `json:"is_english"`
}

// NameService 先查本地名称表，再退回行情源
type NameService struct {
	names  port.NameDirectory
	prices *PriceService
}

func NewNameService(names port.NameDirectory, prices *PriceService) *NameService {
	return &NameService{names: names, prices: prices}
}

func (s *NameService) Lookup(ctx context.Context, code, market string) (NameResult, error) {
	code = strings.TrimSpace(code)
	log.Info().Str("code", code).Str("market", market).Msg("stock name lookup")
	if code == "" {
		return NameResult{}, invalid("請輸入股票代碼", ErrCodeRequired)
	}
	m, err := model.ParseMarket(market)
	if err != nil {
		return NameResult{}, invalid("市場必須為 TWSE 或 TWO", err)
	}

	if s.names != nil {
		if name, ok := s.names.Lookup(code, m); ok {
			return NameResult{Name: name, IsEnglish: false}, nil
		}
	}

	var name string
	if s.prices != nil {
		name = s.prices.Quote(ctx, model.Instrument{Code: code, Market: m}).Name
	}
	if name == "" {
		log.Error().Str("code", code).Str("market", string(m)).Msg("stock name not found")
		return NameResult{}, invalid(
			fmt.Sprintf("無法抓取股票 %s 的名稱，請檢查代碼或市場選擇，或手動輸入名稱", code),
			ErrNameNotFound,
		)
	}
	return NameResult{Name: name, IsEnglish: !hasHan(name)}, nil
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
