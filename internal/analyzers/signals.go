package analyzers

import (
	"context"
	"fmt"
	"strings"

	"MarketLens/internal/domain/models"
	"MarketLens/internal/indicators"
)

const (
	voteBuy     = "buy"
	voteSell    = "sell"
	voteNeutral = "neutral"
)

// Signals tallies six independent indicator votes and emits a majority
// recommendation. A strict majority of the decided (buy plus sell) votes is
// required; ties and all-neutral tallies resolve to hold.
type Signals struct{}

func (Signals) Name() string { return NameSignals }

type vote struct {
	Name string `json:"name"`
	Vote string `json:"vote"`
}

func (Signals) Analyze(_ context.Context, data *models.StandardMarketData, _ Params) models.Result {
	if data.Frame == nil || data.Frame.Len() < 2 {
		return errResult(NameSignals, ErrNotEnoughData)
	}
	f := indicators.Enrich(data.Frame.Clone())
	last := f.Len() - 1

	price := f.Close[last]
	rsi := f.Column(indicators.ColRSI)[last]
	sma7 := f.Column(indicators.ColSMA7)[last]
	sma20 := f.Column(indicators.ColSMA20)[last]
	sma50 := f.Column(indicators.ColSMA50)[last]
	macd := f.Column(indicators.ColMACD)[last]
	upper := f.Column(indicators.ColBBUpper)[last]
	lower := f.Column(indicators.ColBBLower)[last]
	volRatio := f.Column(indicators.ColVolumeRatio)[last]

	votes := []vote{
		{"rsi_level", rangeVote(rsi, 30, 70)},
		{"sma_cross", compareVote(sma7, sma20)},
		{"macd_sign", compareVote(macd, 0)},
		{"bollinger_breakout", rangeVote(price, lower, upper)},
		{"volume_move", volumeVote(f.Close, volRatio)},
		{"sma_alignment", alignmentVote(price, sma20, sma50)},
	}

	var buy, sell, neutral int
	for _, v := range votes {
		switch v.Vote {
		case voteBuy:
			buy++
		case voteSell:
			sell++
		default:
			neutral++
		}
	}

	recommendation := "hold"
	decided := buy + sell
	if decided > 0 {
		if buy*2 > decided {
			recommendation = voteBuy
		} else if sell*2 > decided {
			recommendation = voteSell
		}
	}

	payload := map[string]interface{}{
		"signals":        votes,
		"counts":         map[string]interface{}{"buy": buy, "sell": sell, "neutral": neutral},
		"recommendation": recommendation,
	}

	var md strings.Builder
	fmt.Fprintf(&md, "**Recommendation:** %s (buy %d / sell %d / neutral %d)\n\n",
		strings.ToUpper(recommendation), buy, sell, neutral)
	for _, v := range votes {
		fmt.Fprintf(&md, "- %s: %s\n", v.Name, v.Vote)
	}

	return models.Result{Name: NameSignals, Payload: payload, Markdown: md.String()}
}

// rangeVote votes buy below the lower bound and sell above the upper one.
// Covers both RSI zones (30/70) and Bollinger breakouts (lower/upper band).
func rangeVote(v, lo, hi float64) string {
	if v < lo {
		return voteBuy
	}
	if v > hi {
		return voteSell
	}
	return voteNeutral
}

func compareVote(a, b float64) string {
	if a > b {
		return voteBuy
	}
	if a < b {
		return voteSell
	}
	return voteNeutral
}

func alignmentVote(price, sma20, sma50 float64) string {
	if price > sma20 && sma20 > sma50 {
		return voteBuy
	}
	if price < sma20 && sma20 < sma50 {
		return voteSell
	}
	return voteNeutral
}

// volumeVote flags a volume-confirmed move: elevated volume in the direction
// of the latest close-to-close change.
func volumeVote(closes []float64, ratio float64) string {
	if ratio <= 1.5 || len(closes) < 2 {
		return voteNeutral
	}
	return compareVote(closes[len(closes)-1], closes[len(closes)-2])
}
