package indicators

import (
	"math"

	"MarketLens/internal/domain/models"
)

// Column names added by the pipeline stages.
const (
	ColRSI         = "rsi_14"
	ColSMA7        = "sma_7"
	ColSMA20       = "sma_20"
	ColSMA50       = "sma_50"
	ColEMA12       = "ema_12"
	ColEMA26       = "ema_26"
	ColMACD        = "macd"
	ColMACDSignal  = "macd_signal"
	ColMACDHist    = "macd_hist"
	ColBBUpper     = "bb_upper"
	ColBBLower     = "bb_lower"
	ColBBWidth     = "bb_width"
	ColATR         = "atr_14"
	ColVolumeSMA   = "volume_sma_20"
	ColVolumeRatio = "volume_ratio"
)

// Enrich runs the fixed stage order (momentum, trend, volatility, volume)
// on the given frame, then back-fills and forward-fills the window gaps so
// downstream consumers never observe NaN inside the populated range. The
// volatility stage reads the trend stage's SMA20, so the order is fixed.
// Callers that share the frame must pass a clone; Enrich mutates in place.
//
// The pipeline is pure: the same input frame always yields identical
// output columns.
func Enrich(f *models.Frame) *models.Frame {
	momentum(f)
	trend(f)
	volatility(f)
	volume(f)
	fillGaps(f)
	return f
}

// momentum adds the 14-period Wilder-style RSI.
func momentum(f *models.Frame) {
	n := f.Len()
	gains := make([]float64, n)
	losses := make([]float64, n)
	if n > 0 {
		gains[0] = math.NaN()
		losses[0] = math.NaN()
	}
	for i := 1; i < n; i++ {
		d := f.Close[i] - f.Close[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}
	avgGain := ewm(gains, 14)
	avgLoss := ewm(losses, 14)

	rsi := make([]float64, n)
	for i := 0; i < n; i++ {
		ag, al := avgGain[i], avgLoss[i]
		switch {
		case math.IsNaN(ag) || math.IsNaN(al):
			rsi[i] = math.NaN()
		case al == 0 && ag == 0:
			rsi[i] = 50
		case al == 0:
			rsi[i] = 100
		default:
			rsi[i] = 100 - 100/(1+ag/al)
		}
	}
	f.SetColumn(ColRSI, rsi)
}

// trend adds close SMAs (7/20/50), EMAs (12/26) and the MACD triple.
func trend(f *models.Frame) {
	f.SetColumn(ColSMA7, rollingMean(f.Close, 7))
	f.SetColumn(ColSMA20, rollingMean(f.Close, 20))
	f.SetColumn(ColSMA50, rollingMean(f.Close, 50))

	ema12 := ewm(f.Close, 12)
	ema26 := ewm(f.Close, 26)
	f.SetColumn(ColEMA12, ema12)
	f.SetColumn(ColEMA26, ema26)

	n := f.Len()
	macd := make([]float64, n)
	for i := 0; i < n; i++ {
		macd[i] = ema12[i] - ema26[i]
	}
	signal := ewm(macd, 9)
	hist := make([]float64, n)
	for i := 0; i < n; i++ {
		hist[i] = macd[i] - signal[i]
	}
	f.SetColumn(ColMACD, macd)
	f.SetColumn(ColMACDSignal, signal)
	f.SetColumn(ColMACDHist, hist)
}

// volatility adds Bollinger bands around SMA20, the band width, and ATR-14.
func volatility(f *models.Frame) {
	n := f.Len()
	mid := f.Column(ColSMA20)
	std := rollingStd(f.Close, 20)

	upper := make([]float64, n)
	lower := make([]float64, n)
	width := make([]float64, n)
	for i := 0; i < n; i++ {
		upper[i] = mid[i] + 2*std[i]
		lower[i] = mid[i] - 2*std[i]
		if mid[i] != 0 {
			width[i] = (upper[i] - lower[i]) / mid[i] * 100
		} else {
			width[i] = math.NaN()
		}
	}
	f.SetColumn(ColBBUpper, upper)
	f.SetColumn(ColBBLower, lower)
	f.SetColumn(ColBBWidth, width)

	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		hl := f.High[i] - f.Low[i]
		if i == 0 {
			tr[i] = hl
			continue
		}
		hc := math.Abs(f.High[i] - f.Close[i-1])
		lc := math.Abs(f.Low[i] - f.Close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	f.SetColumn(ColATR, rollingMean(tr, 14))
}

// volume adds the 20-period volume mean and the current/mean ratio.
func volume(f *models.Frame) {
	n := f.Len()
	mean := rollingMean(f.Volume, 20)
	ratio := make([]float64, n)
	for i := 0; i < n; i++ {
		if mean[i] != 0 && !math.IsNaN(mean[i]) {
			ratio[i] = f.Volume[i] / mean[i]
		} else {
			ratio[i] = math.NaN()
		}
	}
	f.SetColumn(ColVolumeSMA, mean)
	f.SetColumn(ColVolumeRatio, ratio)
}

// fillGaps back-fills then forward-fills NaN runs in every indicator column.
func fillGaps(f *models.Frame) {
	for _, name := range f.Columns() {
		col := f.Column(name)
		backfill(col)
		forwardfill(col)
	}
}

func backfill(vals []float64) {
	next := math.NaN()
	for i := len(vals) - 1; i >= 0; i-- {
		if math.IsNaN(vals[i]) {
			vals[i] = next
		} else {
			next = vals[i]
		}
	}
}

func forwardfill(vals []float64) {
	prev := math.NaN()
	for i := 0; i < len(vals); i++ {
		if math.IsNaN(vals[i]) {
			vals[i] = prev
		} else {
			prev = vals[i]
		}
	}
}

// rollingMean returns the simple moving average; positions before a full
// window are NaN.
func rollingMean(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	var sum float64
	for i := range vals {
		sum += vals[i]
		if i >= window {
			sum -= vals[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// rollingStd returns the rolling sample standard deviation (n-1 divisor);
// positions before a full window are NaN.
func rollingStd(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	for i := range vals {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		var sum, sum2 float64
		for j := i - window + 1; j <= i; j++ {
			sum += vals[j]
			sum2 += vals[j] * vals[j]
		}
		n := float64(window)
		mean := sum / n
		variance := (sum2 - n*mean*mean) / (n - 1)
		if variance < 0 {
			variance = 0
		}
		out[i] = math.Sqrt(variance)
	}
	return out
}

// ewm returns the exponential moving average with alpha = 2/(span+1),
// seeded at the first finite value; leading NaNs stay NaN.
func ewm(vals []float64, span int) []float64 {
	out := make([]float64, len(vals))
	alpha := 2.0 / (float64(span) + 1)
	prev := math.NaN()
	for i, v := range vals {
		switch {
		case math.IsNaN(v):
			out[i] = prev
		case math.IsNaN(prev):
			prev = v
			out[i] = v
		default:
			prev = alpha*v + (1-alpha)*prev
			out[i] = prev
		}
	}
	return out
}
