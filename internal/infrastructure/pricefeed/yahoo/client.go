package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"folio/internal/domain/model"
	"folio/internal/infrastructure/pricefeed"
)

const Name = "yahoo"

const (
	pricePath = "$.chart.result[0].meta.regularMarketPrice"
	namePath  = "$.chart.result[0].meta.shortName"
	errorPath = "$.chart.error.description"
)

// Client Yahoo Finance chart API，代码沿用 .TW / .TWO 后缀
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	if client == nil {
		client = pricefeed.NewHTTPClient(0)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *Client) Name() string { return Name }

func (c *Client) Quote(ctx context.Context, inst model.Instrument) (model.Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", c.baseURL, url.PathEscape(inst.ID()))
	body, err := pricefeed.Fetch(ctx, c.client, Name, endpoint)
	if err != nil {
		return model.Quote{}, err
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return model.Quote{}, fmt.Errorf("yahoo decode: %w", err)
	}
	if desc, err := jsonpath.Get(errorPath, doc); err == nil {
		if s, ok := desc.(string); ok && s != "" {
			return model.Quote{}, fmt.Errorf("%w: %s", pricefeed.ErrNotFound, s)
		}
	}

	raw, err := jsonpath.Get(pricePath, doc)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %s", pricefeed.ErrNotFound, inst.ID())
	}
	price, ok := first(raw).(float64)
	if !ok || price <= 0 {
		return model.Quote{}, fmt.Errorf("%w: %s price %v", pricefeed.ErrNotFound, inst.ID(), raw)
	}

	q := model.Quote{Price: price, Source: Name}
	if n, err := jsonpath.Get(namePath, doc); err == nil {
		q.Name, _ = first(n).(string)
	}
	return q, nil
}

// jsonpath 有时返回单元素列表，取第一个
func first(v any) any {
	if list, ok := v.([]any); ok && len(list) > 0 {
		return list[0]
	}
	return v
}
