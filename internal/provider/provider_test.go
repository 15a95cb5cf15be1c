package provider

import (
	"context"
	"fmt"
	"testing"
	"time"

	"MarketLens/internal/domain/models"
	"MarketLens/internal/domain/repository"
	"MarketLens/internal/state"
	"MarketLens/pkg/logger"
)

type fakeExchange struct {
	ohlcvCalls  int
	tickerCalls int
	failOHLCV   bool
	failTicker  bool
}

func (f *fakeExchange) FetchOHLCV(_ context.Context, symbol string, _ repository.Timeframe, limit int) ([]models.Candle, error) {
	f.ohlcvCalls++
	if f.failOHLCV {
		return nil, fmt.Errorf("exchange down")
	}
	rows := make([]models.Candle, limit)
	for i := range rows {
		rows[i] = models.Candle{Timestamp: int64(i), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}
	}
	return rows, nil
}

func (f *fakeExchange) FetchTicker(_ context.Context, symbol string) (*models.Ticker, error) {
	f.tickerCalls++
	if f.failTicker {
		return nil, fmt.Errorf("exchange down")
	}
	return &models.Ticker{Symbol: symbol, Last: 1.5, Percentage: 2.5}, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestOHLCVMemoized(t *testing.T) {
	ex := &fakeExchange{}
	p := New(state.New(0), ex, testLogger(t))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		rows, err := p.FetchOHLCV(ctx, "BTC/USDT", repository.TF1h, 50)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 50 {
			t.Fatalf("expected 50 rows, got %d", len(rows))
		}
	}
	if ex.ohlcvCalls != 1 {
		t.Fatalf("expected one exchange call, got %d", ex.ohlcvCalls)
	}

	// A different limit is a different cache entry.
	if _, err := p.FetchOHLCV(ctx, "BTC/USDT", repository.TF1h, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.ohlcvCalls != 2 {
		t.Fatalf("expected second call for new key, got %d", ex.ohlcvCalls)
	}
}

func TestFetchErrorsNotCached(t *testing.T) {
	ex := &fakeExchange{failOHLCV: true}
	p := New(state.New(0), ex, testLogger(t))

	ctx := context.Background()
	if _, err := p.FetchOHLCV(ctx, "BTC/USDT", repository.TF1h, 10); err == nil {
		t.Fatalf("expected error")
	}
	ex.failOHLCV = false
	if _, err := p.FetchOHLCV(ctx, "BTC/USDT", repository.TF1h, 10); err != nil {
		t.Fatalf("retry must reach the exchange: %v", err)
	}
	if ex.ohlcvCalls != 2 {
		t.Fatalf("expected 2 calls, got %d", ex.ohlcvCalls)
	}
}

func TestSnapshotFailsOnTickerError(t *testing.T) {
	ex := &fakeExchange{failTicker: true}
	p := New(state.New(0), ex, testLogger(t))

	if _, err := p.GetStandardData(context.Background(), "ETH/USDT", repository.TF1h, 30, true); err == nil {
		t.Fatalf("ticker failure must fail the snapshot")
	}

	// Without the ticker the same request succeeds.
	data, err := p.GetStandardData(context.Background(), "ETH/USDT", repository.TF1h, 30, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Ticker != nil {
		t.Fatalf("expected nil ticker when not requested")
	}
	if data.Frame == nil || data.Frame.Len() != 30 {
		t.Fatalf("frame not built")
	}
	if data.Metadata.Symbol != "ETH/USDT" || data.Metadata.Timeframe != "1h" {
		t.Fatalf("metadata mismatch: %+v", data.Metadata)
	}
}

func TestSnapshotIncludesTicker(t *testing.T) {
	ex := &fakeExchange{}
	p := New(state.New(0), ex, testLogger(t))

	data, err := p.GetStandardData(context.Background(), "BTC/USDT", repository.TF1h, 10, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Ticker == nil || data.Ticker.Last != 1.5 {
		t.Fatalf("expected ticker in snapshot, got %+v", data.Ticker)
	}
}

func TestPrimeTickerServesWithoutFetch(t *testing.T) {
	ex := &fakeExchange{}
	p := New(state.New(0), ex, testLogger(t), WithTickerTTL(time.Minute))

	p.PrimeTicker("BTC/USDT", &models.Ticker{Symbol: "BTC/USDT", Last: 42})
	tk, err := p.FetchTicker(context.Background(), "BTC/USDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tk.Last != 42 {
		t.Fatalf("expected primed ticker, got %+v", tk)
	}
	if ex.tickerCalls != 0 {
		t.Fatalf("primed entry must suppress the fetch, got %d calls", ex.tickerCalls)
	}
}
