package analyzers

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"MarketLens/internal/domain/models"
)

// Structure detects swing highs/lows, derives support/resistance and
// round-number key levels, and classifies the price regime. Short series
// report structure "unknown" with empty level lists rather than an error.
type Structure struct{}

func (Structure) Name() string { return NameStructure }

func (Structure) Analyze(_ context.Context, data *models.StandardMarketData, _ Params) models.Result {
	f := data.Frame
	if f == nil || f.Len() < 20 {
		return structureResult("unknown", nil, nil, nil, 0)
	}
	price := f.Close[f.Len()-1]

	highs, lows := swingPoints(f.High, f.Low)

	support := levelsBelow(lows, price)
	resistance := levelsAbove(highs, price)
	key := keyLevels(price)

	regime := "ranging"
	if f.Len() >= 50 {
		regime = classifyRegime(highs, lows, f.Close)
	}

	return structureResult(regime, support, resistance, key, price)
}

type swing struct {
	index int
	price float64
}

// swingPoints finds local extrema over a 5-bar window: a bar is a swing high
// (low) iff strictly greater (less) than its two neighbors on each side.
func swingPoints(high, low []float64) (highs, lows []swing) {
	for i := 2; i < len(high)-2; i++ {
		h := high[i]
		if h > high[i-1] && h > high[i-2] && h > high[i+1] && h > high[i+2] {
			highs = append(highs, swing{index: i, price: h})
		}
		l := low[i]
		if l < low[i-1] && l < low[i-2] && l < low[i+1] && l < low[i+2] {
			lows = append(lows, swing{index: i, price: l})
		}
	}
	return highs, lows
}

// levelsBelow returns up to three swing-low prices under price, nearest first.
func levelsBelow(lows []swing, price float64) []float64 {
	var out []float64
	for _, s := range lows {
		if s.price < price {
			out = append(out, s.price)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

// levelsAbove returns up to three swing-high prices over price, nearest first.
func levelsAbove(highs []swing, price float64) []float64 {
	var out []float64
	for _, s := range highs {
		if s.price > price {
			out = append(out, s.price)
		}
	}
	sort.Float64s(out)
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

// keyLevels anchors round numbers around price at its order of magnitude,
// offsets -2..+2.
func keyLevels(price float64) []float64 {
	if price <= 0 {
		return nil
	}
	step := math.Pow(10, math.Floor(math.Log10(price)))
	base := math.Round(price/step) * step
	out := make([]float64, 0, 5)
	for k := -2; k <= 2; k++ {
		lvl := base + float64(k)*step
		if lvl > 0 {
			out = append(out, lvl)
		}
	}
	return out
}

// classifyRegime labels uptrend/downtrend from strictly monotonic sequences
// of the last four swing highs and lows, falling back to the SMA20/SMA50
// spread with 1%/2% thresholds.
func classifyRegime(highs, lows []swing, closes []float64) string {
	if len(highs) >= 4 && len(lows) >= 4 {
		h := lastPrices(highs, 4)
		l := lastPrices(lows, 4)
		if strictlyIncreasing(h) && strictlyIncreasing(l) {
			return "uptrend"
		}
		if strictlyDecreasing(h) && strictlyDecreasing(l) {
			return "downtrend"
		}
	}
	sma20 := tailMean(closes, 20)
	sma50 := tailMean(closes, 50)
	if sma50 == 0 {
		return "ranging"
	}
	spread := (sma20 - sma50) / sma50 * 100
	switch {
	case spread > 2:
		return "uptrend"
	case spread > 1:
		return "leaning_up"
	case spread < -2:
		return "downtrend"
	case spread < -1:
		return "leaning_down"
	}
	return "ranging"
}

func lastPrices(swings []swing, n int) []float64 {
	out := make([]float64, n)
	for i, s := range swings[len(swings)-n:] {
		out[i] = s.price
	}
	return out
}

func strictlyIncreasing(vals []float64) bool {
	for i := 1; i < len(vals); i++ {
		if vals[i] <= vals[i-1] {
			return false
		}
	}
	return true
}

func strictlyDecreasing(vals []float64) bool {
	for i := 1; i < len(vals); i++ {
		if vals[i] >= vals[i-1] {
			return false
		}
	}
	return true
}

func structureResult(regime string, support, resistance, key []float64, price float64) models.Result {
	if support == nil {
		support = []float64{}
	}
	if resistance == nil {
		resistance = []float64{}
	}
	if key == nil {
		key = []float64{}
	}
	payload := map[string]interface{}{
		"structure":  regime,
		"support":    support,
		"resistance": resistance,
		"key_levels": key,
	}

	var md strings.Builder
	fmt.Fprintf(&md, "**Structure:** %s\n\n", regime)
	fmt.Fprintf(&md, "- Support: %s\n", formatLevels(support))
	fmt.Fprintf(&md, "- Resistance: %s\n", formatLevels(resistance))
	if price > 0 {
		fmt.Fprintf(&md, "- Key levels near %.4f: %s\n", price, formatLevels(key))
	}

	return models.Result{Name: NameStructure, Payload: payload, Markdown: md.String()}
}

func formatLevels(levels []float64) string {
	if len(levels) == 0 {
		return "none"
	}
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprintf("%.4f", l)
	}
	return strings.Join(parts, ", ")
}
