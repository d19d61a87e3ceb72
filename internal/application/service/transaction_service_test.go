package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/domain/model"
	domainservice "folio/internal/domain/service"
	"folio/internal/infrastructure/storage/csvfile"
)

func newTransactions(repo *fakeRepo) (*TransactionService, *SummaryCache, *recordingPublisher) {
	cache := NewSummaryCache(0, nil)
	pub := &recordingPublisher{}
	svc := NewTransactionService(repo, csvfile.Codec{}, cache, pub)
	svc.now = func() time.Time { return time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC) }
	return svc, cache, pub
}

func TestAddComputesCharges(t *testing.T) {
	repo := &fakeRepo{}
	svc, _, pub := newTransactions(repo)

	tx, err := svc.Add(context.Background(), AddRequest{
		Code:     "2330",
		Name:     "台積電",
		Type:     "Sell",
		Quantity: 1000,
		Price:    600,
	})
	require.NoError(t, err)
	assert.Equal(t, "2330.TW", tx.InstrumentID)
	assert.Equal(t, "2025-03-04", tx.Date)
	assert.Equal(t, model.SideSell, tx.Side)
	assert.InDelta(t, 855, tx.Fee, 1e-9)
	assert.InDelta(t, 1800, tx.Tax, 1e-9)
	assert.Len(t, repo.txs, 1)
	assert.Equal(t, []string{"add"}, pub.reasons)
}

func TestAddDefaults(t *testing.T) {
	repo := &fakeRepo{}
	svc, _, _ := newTransactions(repo)

	tx, err := svc.Add(context.Background(), AddRequest{
		Date:     "2024-12-31",
		Code:     "6488",
		Market:   "TWO",
		Quantity: 1000,
		Price:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, "6488.TWO", tx.InstrumentID)
	assert.Equal(t, DefaultStockName, tx.DisplayName)
	assert.Equal(t, model.SideBuy, tx.Side)
	assert.Equal(t, "2024-12-31", tx.Date)
	assert.Equal(t, domainservice.MinFee, tx.Fee)
	assert.Zero(t, tx.Tax)
}

func TestAddValidation(t *testing.T) {
	tests := []struct {
		name string
		req  AddRequest
		msg  string
	}{
		{"empty code", AddRequest{Quantity: 1000, Price: 1}, "股票代碼不能為空"},
		{"odd lot", AddRequest{Code: "2330", Quantity: 500, Price: 1}, "股數必須為1000的倍數"},
		{"zero qty", AddRequest{Code: "2330", Price: 1}, "股數必須為正數"},
		{"zero price", AddRequest{Code: "2330", Quantity: 1000}, "每股價格必須為正數"},
		{"bad side", AddRequest{Code: "2330", Type: "Hold", Quantity: 1000, Price: 1}, "交易類型必須為 Buy 或 Sell"},
		{"bad date", AddRequest{Code: "2330", Date: "2025/01/01", Quantity: 1000, Price: 1}, "日期格式必須為 YYYY-MM-DD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			svc, _, _ := newTransactions(repo)
			_, err := svc.Add(context.Background(), tt.req)
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.msg, ve.Msg)
			assert.Empty(t, repo.txs)
		})
	}
}

func TestAddInvalidatesSummary(t *testing.T) {
	svc, cache, _ := newTransactions(&fakeRepo{})
	cache.PutIf(cache.Generation(), model.Summary{TotalCost: 1})

	_, err := svc.Add(context.Background(), AddRequest{Code: "2330", Quantity: 1000, Price: 600})
	require.NoError(t, err)
	_, ok := cache.Get()
	assert.False(t, ok)
}

const importCSV = "Date,Stock_Code,Stock_Name,Type,Quantity,Price,Fee,Tax\n" +
	"2025-01-02,2330.TW,台積電,Buy,1000,600,855,0\n" +
	"2025-01-03,2330.TW,台積電,Sell,1000,650,926.25,1950\n"

func TestImportAppendAndOverwrite(t *testing.T) {
	repo := &fakeRepo{txs: []model.Transaction{buy("2317.TW", "鴻海", 1000, 100, 142.5)}}
	svc, _, pub := newTransactions(repo)
	ctx := context.Background()

	n, err := svc.Import(ctx, strings.NewReader(importCSV), false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, repo.txs, 3)

	n, err = svc.Import(ctx, strings.NewReader(importCSV), true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, repo.txs, 2)
	assert.Equal(t, "2330.TW", repo.txs[0].InstrumentID)
	assert.Equal(t, []string{"import_append", "import_overwrite"}, pub.reasons)
}

func TestImportRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"bad header", "Date,Code\n2025-01-02,2330.TW\n", "匯入檔案格式不正確，需包含正確欄位"},
		{"odd lot", "Date,Stock_Code,Stock_Name,Type,Quantity,Price,Fee,Tax\n2025-01-02,2330.TW,台積電,Buy,1500,600,20,0\n", "匯入檔案中的股數必須為1000的倍數"},
		{"negative quantity", "Date,Stock_Code,Stock_Name,Type,Quantity,Price,Fee,Tax\n2025-01-02,2330.TW,台積電,Buy,1000,600,855,0\n2025-01-03,2330.TW,台積電,Sell,-1000,600,20,0\n", "匯入檔案第 2 筆交易：股數必須為正數"},
		{"zero price", "Date,Stock_Code,Stock_Name,Type,Quantity,Price,Fee,Tax\n2025-01-02,2330.TW,台積電,Buy,1000,0,20,0\n", "匯入檔案第 1 筆交易：每股價格必須為正數"},
		{"NaN price", "Date,Stock_Code,Stock_Name,Type,Quantity,Price,Fee,Tax\n2025-01-02,2330.TW,台積電,Buy,1000,NaN,20,0\n", "匯入檔案格式不正確，需包含正確欄位"},
		{"Inf fee", "Date,Stock_Code,Stock_Name,Type,Quantity,Price,Fee,Tax\n2025-01-02,2330.TW,台積電,Buy,1000,600,Inf,0\n", "匯入檔案格式不正確，需包含正確欄位"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			svc, _, _ := newTransactions(repo)
			_, err := svc.Import(context.Background(), strings.NewReader(tt.body), true)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.msg, ve.Msg)
			assert.True(t, errors.Is(err, ErrInvalidImport))
			assert.Empty(t, repo.txs)
		})
	}
}

func TestExportRoundTrip(t *testing.T) {
	repo := &fakeRepo{}
	svc, _, _ := newTransactions(repo)
	ctx := context.Background()
	_, err := svc.Import(ctx, strings.NewReader(importCSV), true)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, &buf))

	got, err := csvfile.Codec{}.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, repo.txs, got)
}

func TestExportFileName(t *testing.T) {
	got := ExportFileName(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "exported_transactions_20250901.csv", got)
}
