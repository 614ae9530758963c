package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	sig "edgelab-go/internal/signal"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTP adapts a REST market-data service exposing /v1/bars, /v1/levels, and
// /v1/context endpoints. It implements all three provider interfaces.
type HTTP struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// HTTPOption configures HTTP provider construction.
type HTTPOption func(*HTTP)

// WithHTTPClient substitutes the underlying http.Client (tests use this).
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		if client != nil {
			h.client = client
		}
	}
}

// WithAPIKey attaches a bearer token to every request.
func WithAPIKey(key string) HTTPOption {
	return func(h *HTTP) { h.apiKey = key }
}

// NewHTTP builds a REST provider rooted at baseURL.
func NewHTTP(baseURL string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type barRow struct {
	Ts     int64   `json:"ts"` // unix millis
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type barsResponse struct {
	Bars []barRow `json:"bars"`
}

type levelsResponse struct {
	Levels []sig.Level `json:"levels"`
}

type contextResponse struct {
	Favored  string  `json:"favored"`
	Regime   string  `json:"regime"`
	Strength float64 `json:"strength"`
}

// Bars fetches OHLCV bars. An empty list from the service is a valid
// response, not an error.
func (h *HTTP) Bars(ctx context.Context, symbol string, from, to time.Time, interval string) ([]sig.Bar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", fmt.Sprintf("%d", from.UnixMilli()))
	q.Set("to", fmt.Sprintf("%d", to.UnixMilli()))
	q.Set("interval", interval)

	var resp barsResponse
	if err := h.get(ctx, "/v1/bars", q, &resp); err != nil {
		return nil, fmt.Errorf("fetch bars %s: %w", symbol, err)
	}

	bars := make([]sig.Bar, 0, len(resp.Bars))
	for _, row := range resp.Bars {
		bars = append(bars, sig.Bar{
			Symbol: symbol,
			Ts:     time.UnixMilli(row.Ts).UTC(),
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	return bars, nil
}

// Levels fetches dark-pool liquidity levels for a date.
func (h *HTTP) Levels(ctx context.Context, symbol string, date time.Time) ([]sig.Level, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("date", date.Format("2006-01-02"))

	var resp levelsResponse
	if err := h.get(ctx, "/v1/levels", q, &resp); err != nil {
		return nil, fmt.Errorf("fetch levels %s: %w", symbol, err)
	}
	return resp.Levels, nil
}

// Context fetches the market backdrop for a date.
func (h *HTTP) Context(ctx context.Context, date time.Time) (sig.MarketContext, error) {
	q := url.Values{}
	q.Set("date", date.Format("2006-01-02"))

	var resp contextResponse
	if err := h.get(ctx, "/v1/context", q, &resp); err != nil {
		return sig.MarketContext{}, fmt.Errorf("fetch context: %w", err)
	}

	favored := sig.Direction(strings.ToUpper(resp.Favored))
	if favored != sig.Long && favored != sig.Short {
		favored = sig.NoDirection
	}
	return sig.MarketContext{Favored: favored, Regime: resp.Regime, Strength: resp.Strength}, nil
}

func (h *HTTP) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
