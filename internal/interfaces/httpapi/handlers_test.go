package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/application/container"
	"folio/internal/application/service"
	"folio/internal/domain/model"
	"folio/internal/infrastructure/storage"
	"folio/internal/infrastructure/storage/csvfile"
)

type namesStub map[string]string

func (n namesStub) Lookup(code string, market model.Market) (string, bool) {
	name, ok := n[code]
	return name, ok
}

func newTestServer(t *testing.T, seed ...model.Transaction) *Server {
	t.Helper()
	c := container.New(container.Deps{
		Repo:   storage.NewMemory(seed...),
		Codec:  csvfile.Codec{},
		Prices: service.PriceServiceDeps{Names: namesStub{"2330": "台積電"}},
	})
	t.Cleanup(func() { _ = c.Close() })

	s := New(Config{Container: c})
	s.now = func() time.Time { return time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) string {
	t.Helper()
	var env struct {
		Data     json.RawMessage `json:"data"`
		Metadata struct {
			Timestamp string `json:"timestamp"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, v))
	return env.Metadata.Timestamp
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPortfolioEndpoint(t *testing.T) {
	s := newTestServer(t, model.Transaction{
		Date: "2025-01-02", InstrumentID: "2330.TW", DisplayName: "台積電",
		Side: model.SideBuy, Quantity: 1000, UnitPrice: 600, Fee: 855,
	})
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var sum model.Summary
	ts := decodeData(t, rec, &sum)
	assert.Equal(t, "2025-09-01T08:00:00Z", ts)
	require.Len(t, sum.Lines, 1)
	assert.EqualValues(t, 600855, sum.TotalCost)
	assert.Zero(t, sum.Lines[0].CurrentPrice)
}

func TestAddTransaction(t *testing.T) {
	s := newTestServer(t)

	body := `{"code":"2330","name":"台積電","type":"Buy","quantity":1000,"price":600}`
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var tx model.Transaction
	decodeData(t, rec, &tx)
	assert.Equal(t, "2330.TW", tx.InstrumentID)
	assert.InDelta(t, 855, tx.Fee, 1e-9)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/transactions", nil))
	var txs []model.Transaction
	decodeData(t, rec, &txs)
	assert.Len(t, txs, 1)
}

func TestAddTransactionValidation(t *testing.T) {
	s := newTestServer(t)

	body := `{"code":"2330","quantity":999,"price":600}`
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "股數必須為1000的倍數")
}

func TestImportAndExport(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("import_file", "tx.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("Date,Stock_Code,Stock_Name,Type,Quantity,Price,Fee,Tax\n" +
		"2025-01-02,2330.TW,台積電,Buy,2000,600,1710,0\n"))
	require.NoError(t, mw.WriteField("overwrite", "on"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res importResult
	decodeData(t, rec, &res)
	assert.Equal(t, importResult{Imported: 1, Overwrite: true}, res)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/transactions/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="exported_transactions_20250901.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\ufeffDate,Stock_Code"))
	assert.Contains(t, rec.Body.String(), "2330.TW,台積電,Buy,2000,600,1710,0")
}

func TestImportMissingFile(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("overwrite", "on"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(t, s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportRejectsNonCSVFile(t *testing.T) {
	s := newTestServer(t, model.Transaction{Date: "2025-01-02", InstrumentID: "2317.TW", DisplayName: "鴻海", Side: model.SideBuy, Quantity: 1000, UnitPrice: 100, Fee: 142.5})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("import_file", "tx.xlsx")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("Date,Stock_Code,Stock_Name,Type,Quantity,Price,Fee,Tax\n" +
		"2025-01-02,2330.TW,台積電,Buy,1000,600,855,0\n"))
	require.NoError(t, mw.WriteField("overwrite", "on"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(t, s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "請選擇有效的 CSV 檔案", body.Error)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/transactions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var txs []model.Transaction
	decodeData(t, rec, &txs)
	require.Len(t, txs, 1)
	assert.Equal(t, "2317.TW", txs[0].InstrumentID)
}

func TestStockName(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/stock-name", strings.NewReader(`{"code":"2330","market":"TWSE"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res service.NameResult
	decodeData(t, rec, &res)
	assert.Equal(t, service.NameResult{Name: "台積電"}, res)

	req = httptest.NewRequest(http.MethodPost, "/api/stock-name", strings.NewReader("code=9999&market=TWSE"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = do(t, s, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "9999")

	req = httptest.NewRequest(http.MethodPost, "/api/stock-name", strings.NewReader("code="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = do(t, s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "請輸入股票代碼")
}
