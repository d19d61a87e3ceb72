package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/domain/model"
	"folio/internal/infrastructure/pricefeed"
)

const chartOK = `{"chart":{"result":[{"meta":{"currency":"TWD","symbol":"6488.TWO","regularMarketPrice":402.5,"shortName":"GLOBALWAFERS CO LTD"}}],"error":null}}`

const chartMissing = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

func TestQuote(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(chartOK))
	}))
	defer srv.Close()

	q, err := NewClient(srv.URL, srv.Client()).Quote(context.Background(), model.Instrument{Code: "6488", Market: model.MarketTWO})
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/6488.TWO", gotPath)
	assert.Equal(t, 402.5, q.Price)
	assert.Equal(t, "GLOBALWAFERS CO LTD", q.Name)
}

func TestQuoteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartMissing))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client()).Quote(context.Background(), model.Instrument{Code: "0000", Market: model.MarketTWSE})
	assert.ErrorIs(t, err, pricefeed.ErrNotFound)
}
