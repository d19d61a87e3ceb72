package twse

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"folio/internal/domain/model"
	"folio/internal/infrastructure/pricefeed"
)

const Name = "twse"

// Client 证交所 MIS 即时行情
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = "https://mis.twse.com.tw"
	}
	if client == nil {
		client = pricefeed.NewHTTPClient(0)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *Client) Name() string { return Name }

type stockInfoResp struct {
	RtCode    string      `json:"rtcode"`
	RtMessage string      `json:"rtmessage"`
	MsgArray  []stockInfo `json:"msgArray"`
}

type stockInfo struct {
	Code      string `json:"c"`
	Name      string `json:"n"`
	LastTrade string `json:"z"` // 最近成交价，无成交时为 "-"
	PrevClose string `json:"y"`
}

// Quote 取最近成交价，尚无成交时退回昨收
func (c *Client) Quote(ctx context.Context, inst model.Instrument) (model.Quote, error) {
	body, err := pricefeed.Fetch(ctx, c.client, Name, c.endpoint(inst))
	if err != nil {
		return model.Quote{}, err
	}

	var resp stockInfoResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Quote{}, fmt.Errorf("twse decode: %w", err)
	}
	if resp.RtCode != "" && resp.RtCode != "0000" {
		return model.Quote{}, fmt.Errorf("twse api error: %s %s", resp.RtCode, resp.RtMessage)
	}
	for _, info := range resp.MsgArray {
		if info.Code != inst.Code {
			continue
		}
		price, ok := parsePrice(info.LastTrade)
		if !ok {
			price, ok = parsePrice(info.PrevClose)
		}
		if !ok {
			return model.Quote{Name: info.Name, Source: Name}, pricefeed.ErrNotFound
		}
		return model.Quote{Price: price, Name: info.Name, Source: Name}, nil
	}
	return model.Quote{}, pricefeed.ErrNotFound
}

func (c *Client) endpoint(inst model.Instrument) string {
	ex := "tse"
	if inst.Market.IsOTC() {
		ex = "otc"
	}
	q := url.Values{}
	q.Set("ex_ch", fmt.Sprintf("%s_%s.tw", ex, inst.Code))
	q.Set("json", "1")
	q.Set("delay", "0")
	return c.baseURL + "/stock/api/getStockInfo.jsp?" + q.Encode()
}

func parsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !(v > 0) || math.IsInf(v, 1) {
		return 0, false
	}
	return v, true
}
