package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"MarketLens/internal/domain/models"
	"MarketLens/internal/domain/repository"
	pkghttp "MarketLens/pkg/http"
)

const DefaultRESTURL = "https://api.binance.com"

// Binance implements the ExchangeClient against the Binance spot REST API.
// Symbols use the "BTC/USDT" spelling everywhere above this layer; the
// slash-free exchange spelling stays internal to it.
type Binance struct {
	baseURL string
	client  *pkghttp.Client
}

type BinanceOption func(*Binance)

func WithBaseURL(u string) BinanceOption {
	return func(b *Binance) { b.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPTimeout(d time.Duration) BinanceOption {
	return func(b *Binance) { b.client = pkghttp.NewClient(pkghttp.WithTimeout(d)) }
}

func NewBinance(opts ...BinanceOption) *Binance {
	b := &Binance{
		baseURL: DefaultRESTURL,
		client:  pkghttp.NewClient(pkghttp.WithTimeout(10 * time.Second)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FetchOHLCV loads candle rows from /api/v3/klines. Binance serves each row
// as a mixed-type array with numeric strings, so rows decode into raw JSON
// first.
func (b *Binance) FetchOHLCV(ctx context.Context, symbol string, timeframe repository.Timeframe, limit int) ([]models.Candle, error) {
	var raw [][]json.RawMessage
	err := b.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    b.baseURL + "/api/v3/klines",
		QueryParams: map[string][]string{
			"symbol":   {exchangeSymbol(symbol)},
			"interval": {string(timeframe)},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
	}

	rows := make([]models.Candle, 0, len(raw))
	for _, r := range raw {
		if len(r) < 6 {
			return nil, fmt.Errorf("binance klines %s: short row of %d fields", symbol, len(r))
		}
		var ts int64
		if err := json.Unmarshal(r[0], &ts); err != nil {
			return nil, fmt.Errorf("binance klines %s: timestamp: %w", symbol, err)
		}
		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := quotedFloat(r[i+1])
			if err != nil {
				return nil, fmt.Errorf("binance klines %s: field %d: %w", symbol, i+1, err)
			}
			vals[i] = v
		}
		rows = append(rows, models.Candle{
			Timestamp: ts,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	return rows, nil
}

type binanceTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	OpenPrice          string `json:"openPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	QuoteVolume        string `json:"quoteVolume"`
	CloseTime          int64  `json:"closeTime"`
}

// FetchTicker loads the 24h rolling stats from /api/v3/ticker/24hr.
func (b *Binance) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	var raw binanceTicker
	err := b.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    b.baseURL + "/api/v3/ticker/24hr",
		QueryParams: map[string][]string{
			"symbol": {exchangeSymbol(symbol)},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("binance ticker %s: %w", symbol, err)
	}

	t := &models.Ticker{Symbol: symbol, Timestamp: raw.CloseTime}
	fields := []struct {
		dst *float64
		src string
	}{
		{&t.Last, raw.LastPrice},
		{&t.Percentage, raw.PriceChangePercent},
		{&t.Open, raw.OpenPrice},
		{&t.High, raw.HighPrice},
		{&t.Low, raw.LowPrice},
		{&t.QuoteVolume, raw.QuoteVolume},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(f.src, 64)
		if err != nil {
			return nil, fmt.Errorf("binance ticker %s: parse %q: %w", symbol, f.src, err)
		}
		*f.dst = v
	}
	return t, nil
}

// exchangeSymbol converts "BTC/USDT" to the exchange's "BTCUSDT" spelling.
func exchangeSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// quotedFloat parses a JSON value that Binance serves as a numeric string.
func quotedFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}
