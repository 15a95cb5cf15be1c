package indicators

import (
	"math"
	"testing"

	"MarketLens/internal/domain/models"
)

func upCandles(n int) []models.Candle {
	rows := make([]models.Candle, n)
	for i := range rows {
		c := 100 + float64(i)
		rows[i] = models.Candle{
			Timestamp: int64(i) * 3600_000,
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return rows
}

func TestEnrichDeterministic(t *testing.T) {
	rows := upCandles(80)
	a := Enrich(models.NewFrame(rows))
	b := Enrich(models.NewFrame(rows))

	cols := a.Columns()
	if len(cols) != len(b.Columns()) {
		t.Fatalf("column count mismatch")
	}
	for _, name := range cols {
		av, bv := a.Column(name), b.Column(name)
		for i := range av {
			if av[i] != bv[i] {
				t.Fatalf("column %s differs at %d: %v vs %v", name, i, av[i], bv[i])
			}
		}
	}
}

func TestRSIOnMonotoneUptrend(t *testing.T) {
	f := Enrich(models.NewFrame(upCandles(60)))
	rsi := f.Column(ColRSI)
	last := rsi[len(rsi)-1]
	if last < 99.9 {
		t.Fatalf("all-gains series should read RSI ~100, got %f", last)
	}
}

func TestSMAValues(t *testing.T) {
	f := Enrich(models.NewFrame(upCandles(60)))
	sma20 := f.Column(ColSMA20)
	// closes 100..159; at index 19 mean of 100..119 = 109.5
	if math.Abs(sma20[19]-109.5) > 1e-9 {
		t.Fatalf("sma20[19] = %f, want 109.5", sma20[19])
	}
}

func TestNoNaNAfterFill(t *testing.T) {
	f := Enrich(models.NewFrame(upCandles(60)))
	for _, name := range f.Columns() {
		for i, v := range f.Column(name) {
			if math.IsNaN(v) {
				t.Fatalf("column %s has NaN at %d after fill", name, i)
			}
		}
	}
}

func TestBackfillUsesFirstWindowValue(t *testing.T) {
	f := Enrich(models.NewFrame(upCandles(60)))
	sma50 := f.Column(ColSMA50)
	// Leading gap is back-filled with the first full-window value.
	if sma50[0] != sma50[49] {
		t.Fatalf("expected leading gap back-filled, got %f vs %f", sma50[0], sma50[49])
	}
}

func TestBollingerBracketsMean(t *testing.T) {
	f := Enrich(models.NewFrame(upCandles(60)))
	upper := f.Column(ColBBUpper)
	lower := f.Column(ColBBLower)
	mid := f.Column(ColSMA20)
	i := 40
	if !(lower[i] < mid[i] && mid[i] < upper[i]) {
		t.Fatalf("bands out of order: %f %f %f", lower[i], mid[i], upper[i])
	}
}

func TestMACDPositiveInUptrend(t *testing.T) {
	f := Enrich(models.NewFrame(upCandles(80)))
	macd := f.Column(ColMACD)
	if macd[len(macd)-1] <= 0 {
		t.Fatalf("steady uptrend should have positive MACD, got %f", macd[len(macd)-1])
	}
}
