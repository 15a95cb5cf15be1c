package analyzers

import (
	"context"
	"fmt"
	"math"
	"strings"

	"MarketLens/internal/domain/models"
)

// Sentiment scores crowd mood on a 0..100 scale from four additive factor
// groups: price momentum over the last 24 bars, volume-ratio extremes,
// SMA20/50 divergence, and a realized-volatility penalty. Fewer than 14 rows
// yields the neutral default instead of an error.
type Sentiment struct{}

func (Sentiment) Name() string { return NameSentiment }

func (Sentiment) Analyze(_ context.Context, data *models.StandardMarketData, _ Params) models.Result {
	closes := frameCloses(data)
	if len(closes) < 14 {
		return sentimentResult(50, 0, nil)
	}
	volumes := data.Frame.Volume

	score := 50.0
	factors := 0
	var notes []string

	// Momentum over the last 24 bars (shorter series use what they have).
	lookback := 24
	if lookback > len(closes)-1 {
		lookback = len(closes) - 1
	}
	base := closes[len(closes)-1-lookback]
	var momentum float64
	if base != 0 {
		momentum = (closes[len(closes)-1] - base) / base * 100
	}
	if adj := momentumAdjust(momentum); adj != 0 {
		score += adj
		factors++
		notes = append(notes, fmt.Sprintf("momentum %+.1f%% over %d bars", momentum, lookback))
	}

	// Volume extremes lean the score in the momentum direction.
	if ratio := lastVolumeRatio(volumes); ratio > 1.5 {
		if momentum >= 0 {
			score += 10
		} else {
			score -= 10
		}
		factors++
		notes = append(notes, fmt.Sprintf("elevated volume %.2fx", ratio))
	} else if ratio < 0.5 {
		score -= 5
		factors++
		notes = append(notes, fmt.Sprintf("thin volume %.2fx", ratio))
	}

	// SMA20/50 divergence needs the longer window.
	if len(closes) >= 50 {
		sma20 := tailMean(closes, 20)
		sma50 := tailMean(closes, 50)
		if sma50 != 0 {
			div := (sma20 - sma50) / sma50 * 100
			if adj := divergenceAdjust(div); adj != 0 {
				score += adj
				factors++
				notes = append(notes, fmt.Sprintf("SMA20/50 divergence %+.2f%%", div))
			}
		}
	}

	// Choppy tape discounts conviction.
	if sigma := returnsStd(closes); sigma > 0.05 {
		score -= 5
		factors++
		notes = append(notes, fmt.Sprintf("high realized volatility %.3f", sigma))
	}

	score = clamp(score, 0, 100)
	confidence := math.Min(80, float64(factors)*20)
	return sentimentResult(score, confidence, notes)
}

func momentumAdjust(pct float64) float64 {
	mag := math.Abs(pct)
	var adj float64
	switch {
	case mag > 10:
		adj = 20
	case mag > 5:
		adj = 15
	case mag > 2:
		adj = 10
	case mag > 0.5:
		adj = 5
	}
	if pct < 0 {
		adj = -adj
	}
	return adj
}

func divergenceAdjust(pct float64) float64 {
	switch {
	case pct > 2:
		return 10
	case pct > 0.5:
		return 5
	case pct < -2:
		return -10
	case pct < -0.5:
		return -5
	}
	return 0
}

func sentimentResult(score, confidence float64, notes []string) models.Result {
	label := "neutral"
	switch {
	case score >= 80:
		label = "very bullish"
	case score >= 60:
		label = "bullish"
	case score <= 20:
		label = "very bearish"
	case score <= 40:
		label = "bearish"
	}
	bias := "neutral"
	if score > 55 {
		bias = "bullish"
	} else if score < 45 {
		bias = "bearish"
	}

	payload := map[string]interface{}{
		"score":      score,
		"label":      label,
		"trend_bias": bias,
		"confidence": confidence,
		"factors":    notes,
	}

	var md strings.Builder
	fmt.Fprintf(&md, "**Sentiment:** %s (score %.0f, confidence %.0f%%)\n", label, score, confidence)
	for _, n := range notes {
		fmt.Fprintf(&md, "- %s\n", n)
	}

	return models.Result{Name: NameSentiment, Payload: payload, Markdown: md.String()}
}

func frameCloses(data *models.StandardMarketData) []float64 {
	if data.Frame == nil {
		return nil
	}
	return data.Frame.Close
}

func tailMean(vals []float64, window int) float64 {
	if window > len(vals) {
		window = len(vals)
	}
	if window == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals[len(vals)-window:] {
		sum += v
	}
	return sum / float64(window)
}

// returnsStd is the sample standard deviation of close-to-close returns.
func returnsStd(closes []float64) float64 {
	if len(closes) < 3 {
		return 0
	}
	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			rets = append(rets, (closes[i]-closes[i-1])/closes[i-1])
		}
	}
	if len(rets) < 2 {
		return 0
	}
	var sum float64
	for _, r := range rets {
		sum += r
	}
	mean := sum / float64(len(rets))
	var ss float64
	for _, r := range rets {
		d := r - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(rets)-1))
}

func lastVolumeRatio(volumes []float64) float64 {
	if len(volumes) == 0 {
		return 1
	}
	mean := tailMean(volumes, 20)
	if mean == 0 {
		return 1
	}
	return volumes[len(volumes)-1] / mean
}
