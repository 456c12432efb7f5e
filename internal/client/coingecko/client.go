package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

// RateLimited reports whether an error is a CoinGecko 429. Pollers back off a
// full interval instead of retrying inline.
func RateLimited(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusTooManyRequests
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// Market is one row of /coins/markets. Numeric fields are pointers because
// CoinGecko emits null for listings without recent data; the *_in_currency
// change fields only appear for the windows requested by the caller.
type Market struct {
	ID           string           `json:"id"`
	Symbol       string           `json:"symbol"`
	Name         string           `json:"name"`
	CurrentPrice *decimal.Decimal `json:"current_price"`
	High24h      *decimal.Decimal `json:"high_24h"`
	Low24h       *decimal.Decimal `json:"low_24h"`
	TotalVolume  *decimal.Decimal `json:"total_volume"`

	PriceChange24hPct *float64 `json:"price_change_percentage_24h"`
	Change24h         *float64 `json:"price_change_percentage_24h_in_currency"`
	Change7d          *float64 `json:"price_change_percentage_7d_in_currency"`
	Change14d         *float64 `json:"price_change_percentage_14d_in_currency"`

	LastUpdated string `json:"last_updated"`
}

// Change1d prefers the in-currency 24h change and falls back to the plain
// percentage CoinGecko always includes.
func (m Market) Change1d() *float64 {
	if m.Change24h != nil {
		return m.Change24h
	}
	return m.PriceChange24hPct
}

func (c *Client) Markets(ctx context.Context, vsCurrency string, ids []string) ([]Market, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	query := url.Values{}
	query.Set("vs_currency", vsCurrency)
	query.Set("ids", strings.Join(ids, ","))
	query.Set("price_change_percentage", "24h,7d,14d")
	query.Set("per_page", "250")
	query.Set("page", "1")
	query.Set("sparkline", "false")
	body, err := c.doRequest(ctx, "/coins/markets", query)
	if err != nil {
		return nil, err
	}
	var items []Market
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse markets: %w", err)
	}
	return items, nil
}

// ChartPoint is one [timestamp_ms, value] pair from /market_chart. Pairs with
// null members decode to the zero value; callers filter on Value.
type ChartPoint struct {
	TS    time.Time
	Value decimal.Decimal
}

func (p *ChartPoint) UnmarshalJSON(b []byte) error {
	var arr []*float64
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	if len(arr) < 2 || arr[0] == nil || arr[1] == nil {
		return nil
	}
	p.TS = time.UnixMilli(int64(*arr[0])).UTC()
	p.Value = decimal.NewFromFloat(*arr[1])
	return nil
}

type MarketChart struct {
	Prices       []ChartPoint `json:"prices"`
	TotalVolumes []ChartPoint `json:"total_volumes"`
}

// MarketChart returns daily price/volume history for one coin. Used to seed
// the bar series for assets that have no stored history yet.
func (c *Client) MarketChart(ctx context.Context, id, vsCurrency string, days int) (*MarketChart, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("coin id is required")
	}
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	if days <= 0 {
		days = 30
	}
	query := url.Values{}
	query.Set("vs_currency", vsCurrency)
	query.Set("days", fmt.Sprintf("%d", days))
	query.Set("interval", "daily")
	body, err := c.doRequest(ctx, "/coins/"+url.PathEscape(id)+"/market_chart", query)
	if err != nil {
		return nil, err
	}
	var chart MarketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("failed to parse market chart: %w", err)
	}
	return &chart, nil
}
