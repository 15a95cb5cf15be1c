package analyzers

import (
	"context"
	"fmt"
	"math"

	"MarketLens/internal/domain/models"
)

// FlowPressure estimates buy/sell pressure from signed volume: each bar's
// volume counts toward the side of its close-to-close change, and the ratio
// of the signed sum to total volume classifies the flow state.
type FlowPressure struct{}

func (FlowPressure) Name() string { return NameFlowPressure }

func (FlowPressure) Analyze(_ context.Context, data *models.StandardMarketData, params Params) models.Result {
	closes := frameCloses(data)
	var volumes []float64
	if data.Frame != nil {
		volumes = data.Frame.Volume
	}
	if sample := params.Candles(ParamSample); sample != nil {
		closes = candleCloses(sample)
		volumes = make([]float64, len(sample))
		for i, r := range sample {
			volumes[i] = r.Volume
		}
	}
	if len(closes) < 5 {
		return errResult(NameFlowPressure, ErrNotEnoughData)
	}

	// The first bar's volume has no direction but still counts in the total.
	var signed, total float64
	for _, v := range volumes {
		total += v
	}
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			signed += volumes[i]
		case closes[i] < closes[i-1]:
			signed -= volumes[i]
		}
	}
	if total < 1.0 {
		total = 1.0
	}
	ratio := signed / total

	state := "balanced"
	switch {
	case ratio > 0.05:
		state = "buying"
	case ratio < -0.05:
		state = "selling"
	}
	confidence := math.Min(math.Abs(ratio)*100, 100)

	payload := map[string]interface{}{
		"pressure_ratio": ratio,
		"state":          state,
		"confidence":     confidence,
		"bars":           len(closes),
	}
	md := fmt.Sprintf("**Flow:** %s (pressure %+.3f, confidence %.0f%%)\n", state, ratio, confidence)

	return models.Result{Name: NameFlowPressure, Payload: payload, Markdown: md}
}
