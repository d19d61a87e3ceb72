package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"folio/internal/application/port"
	"folio/internal/domain/model"
	domainservice "folio/internal/domain/service"
)

// DefaultStockName 新增交易时未填名称的默认值
const DefaultStockName = "未知股票"

const dateLayout = "2006-01-02"

// AddRequest 新增一笔交易；费用和税由系统计算
type AddRequest struct {
	Date     string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Code     string  `json:"code" validate:"required"`
	Name     string  `json:"name"`
	Market   string  `json:"market" validate:"omitempty,oneof=TWSE TWO"`
	Type     string  `json:"type" validate:"omitempty,oneof=Buy Sell"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

var fieldMessages = map[string]string{
	"Date":   "日期格式必須為 YYYY-MM-DD",
	"Code":   "股票代碼不能為空",
	"Market": "市場必須為 TWSE 或 TWO",
	"Type":   "交易類型必須為 Buy 或 Sell",
}

// TransactionService 账本的写入、导入和导出
type TransactionService struct {
	repo      port.TransactionRepository
	codec     port.TransactionCodec
	cache     *SummaryCache
	publisher port.LedgerPublisher
	validate  *validator.Validate
	now       func() time.Time
}

func NewTransactionService(repo port.TransactionRepository, codec port.TransactionCodec, cache *SummaryCache, publisher port.LedgerPublisher) *TransactionService {
	return &TransactionService{
		repo:      repo,
		codec:     codec,
		cache:     cache,
		publisher: publisher,
		validate:  validator.New(),
		now:       time.Now,
	}
}

func (s *TransactionService) List(ctx context.Context) ([]model.Transaction, error) {
	return s.repo.List(ctx)
}

// Add 校验并计算手续费、证交税后追加到账本
func (s *TransactionService) Add(ctx context.Context, req AddRequest) (model.Transaction, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	req.Date = strings.TrimSpace(req.Date)

	if err := s.validate.Struct(req); err != nil {
		return model.Transaction{}, translate(err)
	}
	if err := domainservice.ValidateOrder(req.Quantity, req.Price); err != nil {
		return model.Transaction{}, invalid(err.Error(), err)
	}

	market, _ := model.ParseMarket(req.Market)
	side := model.SideBuy
	if req.Type != "" {
		side = model.Side(req.Type)
	}
	date := req.Date
	if date == "" {
		date = s.now().Format(dateLayout)
	}
	name := req.Name
	if name == "" {
		name = DefaultStockName
	}

	inst := model.ParseInstrument(req.Code)
	inst.Market = market
	fee, tax := domainservice.Charges(side, req.Quantity, req.Price)

	tx := model.Transaction{
		Date:         date,
		InstrumentID: inst.ID(),
		DisplayName:  name,
		Side:         side,
		Quantity:     req.Quantity,
		UnitPrice:    req.Price,
		Fee:          fee,
		Tax:          tax,
	}
	if err := s.repo.Append(ctx, tx); err != nil {
		return model.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}
	s.changed(ctx, "add", 1)

	log.Info().
		Str("instrument", tx.InstrumentID).
		Str("side", string(tx.Side)).
		Float64("quantity", tx.Quantity).
		Float64("price", tx.UnitPrice).
		Msg("transaction added")
	return tx, nil
}

// Import 读取账本 CSV；overwrite 为 true 时覆盖原账本，否则追加
func (s *TransactionService) Import(ctx context.Context, r io.Reader, overwrite bool) (int, error) {
	txs, err := s.codec.Decode(r)
	if err != nil {
		return 0, invalid("匯入檔案格式不正確，需包含正確欄位", errors.Join(ErrInvalidImport, err))
	}
	for i, tx := range txs {
		err := domainservice.ValidateOrder(tx.Quantity, tx.UnitPrice)
		switch {
		case errors.Is(err, domainservice.ErrQuantityNotLot):
			return 0, invalid("匯入檔案中的股數必須為1000的倍數",
				fmt.Errorf("%w: row %d quantity %v", ErrInvalidImport, i+1, tx.Quantity))
		case err != nil:
			return 0, invalid(fmt.Sprintf("匯入檔案第 %d 筆交易：%s", i+1, err.Error()),
				fmt.Errorf("%w: row %d: %w", ErrInvalidImport, i+1, err))
		}
	}

	op := "import_append"
	if overwrite {
		op = "import_overwrite"
		err = s.repo.Replace(ctx, txs)
	} else {
		err = s.repo.Append(ctx, txs...)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.changed(ctx, op, len(txs))

	log.Info().Int("rows", len(txs)).Bool("overwrite", overwrite).Msg("transactions imported")
	return len(txs), nil
}

// Export 写出整个账本（不是估值结果）
func (s *TransactionService) Export(ctx context.Context, w io.Writer) error {
	txs, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	return s.codec.Encode(w, txs)
}

// ExportFileName 导出文件名，如 exported_transactions_20250901.csv
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("exported_transactions_%s.csv", now.Format("20060102"))
}

func (s *TransactionService) changed(ctx context.Context, reason string, count int) {
	if s.cache != nil {
		s.cache.Invalidate()
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerChanged(ctx, reason, count); err != nil {
		log.Warn().Err(err).Str("reason", reason).Msg("publish ledger change failed")
	}
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].StructField()
		if msg, ok := fieldMessages[field]; ok {
			if field == "Code" {
				return invalid(msg, ErrCodeRequired)
			}
			return invalid(msg, verrs[0])
		}
	}
	return invalid("輸入無效", err)
}
