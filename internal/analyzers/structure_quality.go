package analyzers

import (
	"context"
	"fmt"
	"math"
	"strings"

	"MarketLens/internal/domain/models"
	"MarketLens/internal/domain/repository"
)

// CandleFetcher is the slice of the provider that multi-timeframe modules
// need: candle series for timeframes beyond the base snapshot.
type CandleFetcher interface {
	FetchOHLCV(ctx context.Context, symbol string, timeframe repository.Timeframe, limit int) ([]models.Candle, error)
}

const qualityFetchLimit = 120

// Parameter keys honored by the multi-timeframe modules.
const (
	ParamTimeframes = "timeframes"
	ParamSynthetic  = "synthetic"
	ParamNoFetch    = "no_fetch"
	ParamSample     = "sample"
)

// StructureQuality measures trend agreement across several timeframes. Each
// frame gets a normalized close-to-close slope and a label; the alignment
// score is the share of frames agreeing with the dominant direction.
type StructureQuality struct {
	fetcher    CandleFetcher
	timeframes []string
}

func NewStructureQuality(fetcher CandleFetcher, timeframes []string) *StructureQuality {
	if len(timeframes) == 0 {
		timeframes = []string{"15m", "1h", "4h"}
	}
	return &StructureQuality{fetcher: fetcher, timeframes: timeframes}
}

func (StructureQuality) Name() string { return NameStructureQuality }

type frameSignal struct {
	Timeframe string  `json:"timeframe"`
	SlopePct  float64 `json:"slope_pct"`
	Label     string  `json:"label"`
}

func (s *StructureQuality) Analyze(ctx context.Context, data *models.StandardMarketData, params Params) models.Result {
	timeframes := params.Strings(ParamTimeframes)
	if len(timeframes) == 0 {
		timeframes = s.timeframes
	}
	synthetic := params.CandleMap(ParamSynthetic)
	noFetch := params.Bool(ParamNoFetch, false)

	var frames []frameSignal
	var up, down int
	for _, tf := range timeframes {
		closes := s.closesFor(ctx, data, tf, synthetic, noFetch)
		if len(closes) < 2 || closes[0] == 0 {
			continue
		}
		slope := (closes[len(closes)-1] - closes[0]) / closes[0]
		label := slopeLabel(slope)
		if strings.HasSuffix(label, "uptrend") {
			up++
		} else if strings.HasSuffix(label, "downtrend") {
			down++
		}
		frames = append(frames, frameSignal{Timeframe: tf, SlopePct: slope * 100, Label: label})
	}
	if len(frames) == 0 {
		return errResult(NameStructureQuality, ErrNoData)
	}

	dominant := up
	if down > dominant {
		dominant = down
	}
	alignment := float64(dominant) / float64(len(frames)) * 100
	regime := "choppy"
	switch {
	case alignment >= 75:
		regime = "aligned"
	case alignment >= 50:
		regime = "mixed"
	}

	volScore, volState := volatilityBucket(frameCloses(data))

	payload := map[string]interface{}{
		"frames":                    frames,
		"structure_alignment_score": alignment,
		"regime":                    regime,
		"volatility_score":          volScore,
		"volatility_state":          volState,
	}

	var md strings.Builder
	fmt.Fprintf(&md, "**Regime:** %s (alignment %.0f%%, volatility %s)\n\n", regime, alignment, volState)
	for _, fr := range frames {
		fmt.Fprintf(&md, "- %s: %s (%+.2f%%)\n", fr.Timeframe, fr.Label, fr.SlopePct)
	}

	return models.Result{Name: NameStructureQuality, Payload: payload, Markdown: md.String()}
}

// closesFor resolves one timeframe's close series: the base snapshot when it
// matches and no override is supplied, a synthetic override, or a fresh
// fetch unless fetching is suppressed.
func (s *StructureQuality) closesFor(ctx context.Context, data *models.StandardMarketData, tf string, synthetic map[string][]models.Candle, noFetch bool) []float64 {
	if rows, ok := synthetic[tf]; ok {
		return candleCloses(rows)
	}
	if tf == data.Metadata.Timeframe {
		return frameCloses(data)
	}
	if noFetch || s.fetcher == nil {
		return nil
	}
	rows, err := s.fetcher.FetchOHLCV(ctx, data.Metadata.Symbol, repository.Timeframe(tf), qualityFetchLimit)
	if err != nil {
		return nil
	}
	return candleCloses(rows)
}

func candleCloses(rows []models.Candle) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Close
	}
	return out
}

func slopeLabel(slope float64) string {
	switch {
	case slope > 0.02:
		return "strong_uptrend"
	case slope > 0.005:
		return "moderate_uptrend"
	case slope < -0.02:
		return "strong_downtrend"
	case slope < -0.005:
		return "moderate_downtrend"
	}
	return "range"
}

// volatilityBucket scores realized volatility of the base close series,
// scaled by the square root of the row count and capped at 0.5.
func volatilityBucket(closes []float64) (float64, string) {
	score := returnsStd(closes) * math.Sqrt(float64(len(closes)))
	if score > 0.5 {
		score = 0.5
	}
	state := "elevated"
	switch {
	case score < 0.05:
		state = "calm"
	case score < 0.15:
		state = "balanced"
	}
	return score, state
}
