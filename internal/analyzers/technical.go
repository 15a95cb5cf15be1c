package analyzers

import (
	"context"
	"fmt"
	"strings"

	"MarketLens/internal/domain/models"
	"MarketLens/internal/indicators"
)

// Technical summarizes the enriched indicator set for the base timeframe:
// trend from the price/SMA20/SMA50 ordering, RSI zone, MACD cross state,
// Bollinger position and volume activity.
type Technical struct{}

func (Technical) Name() string { return NameTechnical }

func (Technical) Analyze(_ context.Context, data *models.StandardMarketData, _ Params) models.Result {
	if data.Frame == nil || data.Frame.Len() < 2 {
		return errResult(NameTechnical, ErrNotEnoughData)
	}
	f := indicators.Enrich(data.Frame.Clone())
	last := f.Len() - 1

	price := f.Close[last]
	sma7 := f.Column(indicators.ColSMA7)[last]
	sma20 := f.Column(indicators.ColSMA20)[last]
	sma50 := f.Column(indicators.ColSMA50)[last]

	trend := "ranging"
	switch {
	case price > sma20 && sma20 > sma50:
		trend = "bullish"
	case price < sma20 && sma20 < sma50:
		trend = "bearish"
	}

	rsi := f.Column(indicators.ColRSI)[last]
	rsiState := "neutral"
	switch {
	case rsi > 70:
		rsiState = "overbought"
	case rsi < 30:
		rsiState = "oversold"
	}

	macd := f.Column(indicators.ColMACD)
	signal := f.Column(indicators.ColMACDSignal)
	macdState := "bearish"
	if macd[last] > signal[last] {
		macdState = "bullish"
	}
	// A cross this bar overrides the plain ordering label.
	if macd[last-1] <= signal[last-1] && macd[last] > signal[last] {
		macdState = "golden_cross"
	} else if macd[last-1] >= signal[last-1] && macd[last] < signal[last] {
		macdState = "death_cross"
	}

	upper := f.Column(indicators.ColBBUpper)[last]
	lower := f.Column(indicators.ColBBLower)[last]
	bbPos := 50.0
	if upper > lower {
		bbPos = clamp((price-lower)/(upper-lower)*100, 0, 100)
	}

	volRatio := f.Column(indicators.ColVolumeRatio)[last]
	volState := "normal"
	switch {
	case volRatio > 1.5:
		volState = "high"
	case volRatio < 0.5:
		volState = "low"
	}

	payload := map[string]interface{}{
		"price": price,
		"trend": trend,
		"sma": map[string]interface{}{
			"sma_7":  sma7,
			"sma_20": sma20,
			"sma_50": sma50,
		},
		"rsi": map[string]interface{}{
			"value": rsi,
			"state": rsiState,
		},
		"macd": map[string]interface{}{
			"value":     macd[last],
			"signal":    signal[last],
			"histogram": f.Column(indicators.ColMACDHist)[last],
			"state":     macdState,
		},
		"bollinger": map[string]interface{}{
			"upper":        upper,
			"lower":        lower,
			"position_pct": bbPos,
			"width_pct":    f.Column(indicators.ColBBWidth)[last],
		},
		"volume": map[string]interface{}{
			"ratio": volRatio,
			"state": volState,
		},
		"atr": f.Column(indicators.ColATR)[last],
	}

	var md strings.Builder
	fmt.Fprintf(&md, "**Price:** %.4f | **Trend:** %s\n\n", price, trend)
	fmt.Fprintf(&md, "- RSI(14): %.1f (%s)\n", rsi, rsiState)
	fmt.Fprintf(&md, "- MACD: %.4f vs signal %.4f (%s)\n", macd[last], signal[last], macdState)
	fmt.Fprintf(&md, "- Bollinger position: %.0f%% of band\n", bbPos)
	fmt.Fprintf(&md, "- Volume: %.2fx average (%s)\n", volRatio, volState)

	return models.Result{Name: NameTechnical, Payload: payload, Markdown: md.String()}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
