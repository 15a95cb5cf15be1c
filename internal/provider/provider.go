package provider

import (
	"context"
	"fmt"
	"time"

	"MarketLens/internal/domain/models"
	"MarketLens/internal/domain/repository"
	"MarketLens/internal/state"
	"MarketLens/pkg/cache"
	"MarketLens/pkg/logger"
)

const (
	// DefaultOHLCVTTL bounds how stale a candle series may be served.
	DefaultOHLCVTTL = 300 * time.Second
	// DefaultTickerTTL bounds how stale a ticker snapshot may be served.
	DefaultTickerTTL = 15 * time.Second

	keyOHLCV  = "ohlcv"
	keyTicker = "ticker"
)

type ohlcvArgs struct {
	symbol    string
	timeframe repository.Timeframe
	limit     int
}

// Provider serves market data snapshots through the shared cache. Fetches are
// memoized per (symbol, timeframe, limit) for candles and per symbol for
// tickers, so repeated analysis requests inside a TTL window hit the exchange
// once.
type Provider struct {
	state    *state.State
	exchange repository.ExchangeClient
	log      *logger.Logger
	metrics  repository.Metrics

	ohlcvTTL  time.Duration
	tickerTTL time.Duration

	fetchOHLCV  func(ctx context.Context, args ohlcvArgs) ([]models.Candle, error)
	fetchTicker func(ctx context.Context, symbol string) (*models.Ticker, error)
}

type Option func(*Provider)

func WithOHLCVTTL(ttl time.Duration) Option {
	return func(p *Provider) { p.ohlcvTTL = ttl }
}

func WithTickerTTL(ttl time.Duration) Option {
	return func(p *Provider) { p.tickerTTL = ttl }
}

func WithMetrics(m repository.Metrics) Option {
	return func(p *Provider) { p.metrics = m }
}

func New(st *state.State, exchange repository.ExchangeClient, log *logger.Logger, opts ...Option) *Provider {
	p := &Provider{
		state:     st,
		exchange:  exchange,
		log:       log,
		ohlcvTTL:  DefaultOHLCVTTL,
		tickerTTL: DefaultTickerTTL,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.fetchOHLCV = cache.Memoized(st.Cache, p.ohlcvTTL, keyOHLCV,
		func(a ohlcvArgs) string { return cache.Key(keyOHLCV, a.symbol, a.timeframe, a.limit) },
		func(ctx context.Context, a ohlcvArgs) ([]models.Candle, error) {
			p.record(keyOHLCV, a.symbol)
			return p.exchange.FetchOHLCV(ctx, a.symbol, a.timeframe, a.limit)
		})
	p.fetchTicker = cache.Memoized(st.Cache, p.tickerTTL, keyTicker,
		func(symbol string) string { return cache.Key(keyTicker, symbol) },
		func(ctx context.Context, symbol string) (*models.Ticker, error) {
			p.record(keyTicker, symbol)
			return p.exchange.FetchTicker(ctx, symbol)
		})
	return p
}

func (p *Provider) record(kind, symbol string) {
	if p.metrics != nil {
		p.metrics.RecordFetch(kind, symbol)
	}
}

// FetchOHLCV returns the candle series for symbol, served from cache when a
// fresh entry exists.
func (p *Provider) FetchOHLCV(ctx context.Context, symbol string, timeframe repository.Timeframe, limit int) ([]models.Candle, error) {
	rows, err := p.fetchOHLCV(ctx, ohlcvArgs{symbol: symbol, timeframe: timeframe, limit: limit})
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordError(keyOHLCV)
		}
		return nil, fmt.Errorf("fetch ohlcv %s %s: %w", symbol, timeframe, err)
	}
	return rows, nil
}

// FetchTicker returns the latest ticker for symbol, served from cache when a
// fresh entry exists.
func (p *Provider) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	t, err := p.fetchTicker(ctx, symbol)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordError(keyTicker)
		}
		return nil, fmt.Errorf("fetch ticker %s: %w", symbol, err)
	}
	return t, nil
}

// GetStandardData assembles the per-request snapshot: candles, the tabular
// frame built from them, and optionally the current ticker. Exchange failures
// propagate to the caller unmodified, ticker included; there is no degraded
// snapshot.
func (p *Provider) GetStandardData(ctx context.Context, symbol string, timeframe repository.Timeframe, limit int, includeTicker bool) (*models.StandardMarketData, error) {
	rows, err := p.FetchOHLCV(ctx, symbol, timeframe, limit)
	if err != nil {
		return nil, err
	}

	data := &models.StandardMarketData{
		OHLCV: rows,
		Frame: models.NewFrame(rows),
		Metadata: models.Metadata{
			Symbol:    symbol,
			Timeframe: string(timeframe),
			Limit:     limit,
		},
	}

	if includeTicker {
		t, err := p.FetchTicker(ctx, symbol)
		if err != nil {
			return nil, err
		}
		data.Ticker = t
	}
	return data, nil
}

// PrimeTicker installs a ticker into the cache ahead of demand. The live
// stream calls this on every update so HTTP requests inside the TTL window
// never touch the REST endpoint.
func (p *Provider) PrimeTicker(symbol string, t *models.Ticker) {
	p.state.Cache.Set(cache.Key(keyTicker, symbol), t, p.tickerTTL)
}
